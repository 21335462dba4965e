package bank

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"auctionchain/core/events"
	"auctionchain/core/types"
	"auctionchain/native/common"
)

var (
	ErrInvalidAmount       = errors.New("bank: amount must not be negative")
	ErrInsufficientBalance = errors.New("bank: insufficient balance")
	ErrBalanceOverflow     = errors.New("bank: balance overflow")
	errNilState            = errors.New("bank engine: state not configured")
)

type engineState interface {
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

// Engine moves native currency between accounts. Balances are bounded to
// 256 bits.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

func (e *Engine) SetState(state engineState) { e.state = state }

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Balance returns the native balance of addr.
func (e *Engine) Balance(addr [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return acc.Clone().Balance, nil
}

// Transfer debits from and credits to. A zero amount is a no-op. The purpose is
// recorded on the emitted event.
func (e *Engine) Transfer(from, to [20]byte, amount *big.Int, auth common.Authorizer, purpose string) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if auth == nil {
		return common.ErrUnauthorized
	}
	if err := auth.Authorize(from); err != nil {
		return err
	}
	amt, overflow := uint256.FromBig(amount)
	if overflow {
		return ErrBalanceOverflow
	}
	fromAcc, err := e.state.GetAccount(from)
	if err != nil {
		return err
	}
	fromAcc = fromAcc.Clone()
	fromBal, overflow := uint256.FromBig(fromAcc.Balance)
	if overflow {
		return ErrBalanceOverflow
	}
	if fromBal.Lt(amt) {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, fromBal.Dec(), amt.Dec())
	}
	if from == to {
		return nil
	}
	toAcc, err := e.state.GetAccount(to)
	if err != nil {
		return err
	}
	toAcc = toAcc.Clone()
	toBal, overflow := uint256.FromBig(toAcc.Balance)
	if overflow {
		return ErrBalanceOverflow
	}
	credited, overflow := new(uint256.Int).AddOverflow(toBal, amt)
	if overflow {
		return ErrBalanceOverflow
	}
	fromAcc.Balance = new(uint256.Int).Sub(fromBal, amt).ToBig()
	toAcc.Balance = credited.ToBig()
	if err := e.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	if err := e.state.PutAccount(to, toAcc); err != nil {
		return err
	}
	e.emitter.Emit(events.Payment{From: from, To: to, Amount: new(big.Int).Set(amount), Purpose: purpose})
	return nil
}

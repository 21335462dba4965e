package auction

import (
	"fmt"
	"math/big"
	"time"

	"auctionchain/core/events"
	"auctionchain/core/types"
	"auctionchain/native/bank"
	"auctionchain/native/common"
)

type engineState interface {
	AuctionGet(asset [32]byte) (*Auction, bool, error)
	AuctionPut(*Auction) error
	// AuctionClose deletes the record and marks the asset's record address
	// as consumed.
	AuctionClose(asset [32]byte) error
	AuctionClosed(asset [32]byte) (bool, error)
}

// Custody moves asset units between holding accounts.
type Custody interface {
	Holding(asset [32]byte, owner [20]byte) (uint64, error)
	Transfer(asset [32]byte, from, to [20]byte, amount uint64, auth common.Authorizer) error
}

// Payments moves native currency.
type Payments interface {
	Balance(addr [20]byte) (*big.Int, error)
	Transfer(from, to [20]byte, amount *big.Int, auth common.Authorizer, purpose string) error
}

// Caller is the acting account of an operation together with every account
// that signed the enclosing transaction.
type Caller struct {
	Address [20]byte
	Signers common.Authorizer
}

// Engine runs the auction state machine. Each method is one atomic operation:
// the node executes it against staged state and discards every write when it
// returns an error. Preconditions are checked before the first write.
type Engine struct {
	state    engineState
	custody  Custody
	payments Payments
	emitter  events.Emitter
	params   Params
	nowFn    func() int64
}

func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		params:  DefaultParams(),
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

func (e *Engine) SetState(state engineState) { e.state = state }

func (e *Engine) SetCustody(custody Custody) { e.custody = custody }

func (e *Engine) SetPayments(payments Payments) { e.payments = payments }

func (e *Engine) SetParams(params Params) { e.params = params }

func (e *Engine) Params() Params { return e.params }

// SetNowFunc overrides the clock. Times are unix seconds.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(auctionEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	switch {
	case e == nil || e.state == nil:
		return errNilState
	case e.custody == nil:
		return errNilCustody
	case e.payments == nil:
		return errNilPayments
	}
	return nil
}

// Get returns the live record for asset.
func (e *Engine) Get(asset [32]byte) (*Auction, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.load(asset)
}

// Phase reports where asset sits in the auction lifecycle.
func (e *Engine) Phase(asset [32]byte) (Phase, error) {
	if e == nil || e.state == nil {
		return PhaseUnopened, errNilState
	}
	if _, ok, err := e.state.AuctionGet(asset); err != nil {
		return PhaseUnopened, err
	} else if ok {
		return PhaseOpen, nil
	}
	closed, err := e.state.AuctionClosed(asset)
	if err != nil {
		return PhaseUnopened, err
	}
	if closed {
		return PhaseClosed, nil
	}
	return PhaseUnopened, nil
}

func (e *Engine) load(asset [32]byte) (*Auction, error) {
	rec, ok, err := e.state.AuctionGet(asset)
	if err != nil {
		return nil, err
	}
	if ok {
		return rec, nil
	}
	closed, err := e.state.AuctionClosed(asset)
	if err != nil {
		return nil, err
	}
	if closed {
		return nil, ErrAuctionClosed
	}
	return nil, ErrAuctionNotFound
}

// Open moves the caller's unit of asset into the vault owned by the derived
// authority, reserves the record's storage deposit and creates the record.
func (e *Engine) Open(caller Caller, asset [32]byte, startTime int64, startingPrice uint64) (*Auction, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if startTime < 0 {
		return nil, ErrInvalidStartTime
	}
	if err := e.params.Validate(); err != nil {
		return nil, err
	}
	if _, ok, err := e.state.AuctionGet(asset); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAuctionExists
	}
	if closed, err := e.state.AuctionClosed(asset); err != nil {
		return nil, err
	} else if closed {
		return nil, ErrAuctionClosed
	}
	authority, err := DeriveAuthority(asset)
	if err != nil {
		return nil, err
	}
	held, err := e.custody.Holding(asset, caller.Address)
	if err != nil {
		return nil, err
	}
	if held == 0 {
		return nil, fmt.Errorf("%w: caller does not hold the asset", ErrUnauthorized)
	}
	vault, err := e.custody.Holding(asset, authority.Address)
	if err != nil {
		return nil, err
	}
	if vault != 0 {
		return nil, ErrVaultNotEmpty
	}
	deposit := e.params.Deposit()
	if deposit.Sign() > 0 {
		balance, err := e.payments.Balance(caller.Address)
		if err != nil {
			return nil, err
		}
		if balance.Cmp(deposit) < 0 {
			return nil, fmt.Errorf("%w: storage deposit %s exceeds balance %s", bank.ErrInsufficientBalance, deposit, balance)
		}
	}
	if err := e.custody.Transfer(asset, caller.Address, authority.Address, 1, caller.Signers); err != nil {
		return nil, err
	}
	if err := e.payments.Transfer(caller.Address, authority.Address, deposit, caller.Signers, "auction.deposit"); err != nil {
		return nil, err
	}
	rec := &Auction{
		Asset:         asset,
		Seller:        caller.Address,
		Authority:     authority.Address,
		Bump:          authority.Bump,
		StartTime:     startTime,
		StartingPrice: startingPrice,
		Deposit:       deposit,
		CreatedAt:     e.now(),
	}
	if err := e.state.AuctionPut(rec); err != nil {
		return nil, err
	}
	e.emit(NewOpenedEvent(rec))
	return rec.Clone(), nil
}

// PlaceBid appends a bid from the caller once the auction has started. There
// is no upper time bound.
func (e *Engine) PlaceBid(caller Caller, asset [32]byte, amount uint64) (*Auction, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	rec, err := e.load(asset)
	if err != nil {
		return nil, err
	}
	if err := requireStarted(rec, e.now()); err != nil {
		return nil, err
	}
	bid := Bid{Bidder: caller.Address, Amount: amount}
	if _, err := rec.PlaceBid(bid, e.params.MaxBids); err != nil {
		return nil, err
	}
	if err := e.state.AuctionPut(rec); err != nil {
		return nil, err
	}
	e.emit(NewBidPlacedEvent(rec, bid))
	return rec.Clone(), nil
}

// RejectBid removes the earliest bid placed by bidder. Seller only.
func (e *Engine) RejectBid(caller Caller, asset [32]byte, bidder [20]byte) (*Auction, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	rec, err := e.load(asset)
	if err != nil {
		return nil, err
	}
	if err := requireSeller(rec, caller.Address); err != nil {
		return nil, err
	}
	bid, err := rec.RejectBid(bidder)
	if err != nil {
		return nil, err
	}
	if err := e.state.AuctionPut(rec); err != nil {
		return nil, err
	}
	e.emit(NewBidRejectedEvent(rec, bid))
	return rec.Clone(), nil
}

// AcceptBid settles the auction with the earliest bid from winner. The winner
// pays the bid amount to the seller and must have signed the transaction; the
// vault releases the asset to the winner under the derived authority; the
// storage deposit returns to the seller and the record is destroyed.
func (e *Engine) AcceptBid(caller Caller, asset [32]byte, winner [20]byte) (Bid, error) {
	if err := e.ready(); err != nil {
		return Bid{}, err
	}
	rec, err := e.load(asset)
	if err != nil {
		return Bid{}, err
	}
	if err := requireSeller(rec, caller.Address); err != nil {
		return Bid{}, err
	}
	bid, _, err := rec.FindBid(winner)
	if err != nil {
		return Bid{}, err
	}
	if caller.Signers == nil {
		return Bid{}, ErrUnauthorized
	}
	if err := caller.Signers.Authorize(winner); err != nil {
		return Bid{}, fmt.Errorf("winning bidder must co-sign: %w", err)
	}
	price := new(big.Int).SetUint64(bid.Amount)
	if err := e.payments.Transfer(winner, rec.Seller, price, caller.Signers, "auction.settlement"); err != nil {
		return Bid{}, err
	}
	if err := e.release(rec, winner); err != nil {
		return Bid{}, err
	}
	e.emit(NewSettledEvent(rec, bid))
	return bid, nil
}

// Cancel returns the asset to the seller and destroys the record. Only legal
// once the auction has started and every bid has been rejected.
func (e *Engine) Cancel(caller Caller, asset [32]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	rec, err := e.load(asset)
	if err != nil {
		return err
	}
	if err := requireSeller(rec, caller.Address); err != nil {
		return err
	}
	if err := requireStarted(rec, e.now()); err != nil {
		return err
	}
	if err := requireNoBids(rec); err != nil {
		return err
	}
	if err := e.release(rec, rec.Seller); err != nil {
		return err
	}
	e.emit(NewCancelledEvent(rec))
	return nil
}

// release drains the vault to recipient and the deposit to the seller, both
// authorized by the derived authority, then closes the record.
func (e *Engine) release(rec *Auction, recipient [20]byte) error {
	signer := Signer(rec.Asset, rec.Bump)
	if err := e.custody.Transfer(rec.Asset, rec.Authority, recipient, 1, signer); err != nil {
		return err
	}
	if err := e.payments.Transfer(rec.Authority, rec.Seller, rec.Deposit, signer, "auction.deposit_refund"); err != nil {
		return err
	}
	return e.state.AuctionClose(rec.Asset)
}

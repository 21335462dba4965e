package token

import (
	"fmt"
	"math"
	"time"

	"auctionchain/core/events"
	"auctionchain/native/common"
)

type engineState interface {
	AssetGet(id [32]byte) (*Asset, bool, error)
	AssetPut(*Asset) error
	HoldingGet(asset [32]byte, owner [20]byte) (uint64, error)
	HoldingPut(asset [32]byte, owner [20]byte, amount uint64) error
}

// Engine issues unique assets and moves them between holding accounts. It is
// the custody primitive used by other modules: every debit is checked against
// an Authorizer, which is either the transaction signer set or a
// program-derived authority proof.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event sink. Nil resets it to a no-op emitter.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

// Issue mints one unit of a new asset to issuer. The identifier is derived
// from the issuer and its current account nonce.
func (e *Engine) Issue(issuer [20]byte, nonce uint64, meta Metadata) (*Asset, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	clean, err := meta.Sanitize()
	if err != nil {
		return nil, err
	}
	id := AssetID(issuer, nonce)
	if _, exists, err := e.state.AssetGet(id); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrAssetExists
	}
	asset := &Asset{
		ID:        id,
		Issuer:    issuer,
		Name:      clean.Name,
		Symbol:    clean.Symbol,
		URI:       clean.URI,
		Supply:    1,
		CreatedAt: e.nowFn(),
	}
	if len(clean.Collection) == 32 {
		copy(asset.Collection[:], clean.Collection)
		_, ok, err := e.state.AssetGet(asset.Collection)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrCollectionNotFound
		}
	}
	if err := e.state.AssetPut(asset); err != nil {
		return nil, err
	}
	if err := e.state.HoldingPut(id, issuer, 1); err != nil {
		return nil, err
	}
	e.emit(events.AssetIssued{
		Asset:      id,
		Issuer:     issuer,
		Symbol:     asset.Symbol,
		URI:        asset.URI,
		Collection: asset.Collection,
	})
	return asset.Clone(), nil
}

// Asset returns the stored asset definition.
func (e *Engine) Asset(id [32]byte) (*Asset, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	asset, ok, err := e.state.AssetGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAssetNotFound
	}
	return asset, nil
}

// Holding returns the units of asset held by owner. Unknown assets fail with
// ErrAssetNotFound so callers cannot mistake a typo for an empty account.
func (e *Engine) Holding(asset [32]byte, owner [20]byte) (uint64, error) {
	if _, err := e.Asset(asset); err != nil {
		return 0, err
	}
	return e.state.HoldingGet(asset, owner)
}

// Transfer moves amount units of asset from one holding account to another.
// The source must be authorized by auth.
func (e *Engine) Transfer(asset [32]byte, from, to [20]byte, amount uint64, auth common.Authorizer) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if auth == nil {
		return common.ErrUnauthorized
	}
	balance, err := e.Holding(asset, from)
	if err != nil {
		return err
	}
	if err := auth.Authorize(from); err != nil {
		return err
	}
	if balance < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientHolding, balance, amount)
	}
	if from == to {
		return nil
	}
	dest, err := e.state.HoldingGet(asset, to)
	if err != nil {
		return err
	}
	if dest > math.MaxUint64-amount {
		return ErrHoldingOverflow
	}
	if err := e.state.HoldingPut(asset, from, balance-amount); err != nil {
		return err
	}
	if err := e.state.HoldingPut(asset, to, dest+amount); err != nil {
		return err
	}
	e.emit(events.AssetTransferred{Asset: asset, From: from, To: to, Amount: amount})
	return nil
}

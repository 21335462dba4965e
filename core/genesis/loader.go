package genesis

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"auctionchain/core/state"
	"auctionchain/native/token"
	"auctionchain/storage"
)

var (
	// ErrChainIDMismatch is returned when a store was initialised for a
	// different chain.
	ErrChainIDMismatch = errors.New("genesis: chain id mismatch")

	chainIDKey     = []byte("genesis/chain-id")
	genesisTimeKey = []byte("genesis/time")
)

// Apply writes the genesis state into db in a single batch. A store that
// already carries genesis is left untouched after its chain id is checked.
// Pre-issued assets consume their owner's account nonces in document order.
func Apply(spec *GenesisSpec, db storage.Database) ([][32]byte, error) {
	if spec == nil {
		return nil, fmt.Errorf("genesis spec must not be nil")
	}
	if db == nil {
		return nil, fmt.Errorf("database must not be nil")
	}
	existing, initialised, err := StoredChainID(db)
	if err != nil {
		return nil, err
	}
	if initialised {
		if existing != spec.ChainID {
			return nil, fmt.Errorf("%w: store %d, genesis %d", ErrChainIDMismatch, existing, spec.ChainID)
		}
		return nil, nil
	}

	overlay := storage.NewOverlay(db)
	defer overlay.Discard()
	manager := state.NewManager(overlay)

	addrs := make([][20]byte, 0, len(spec.balances))
	for addr := range spec.balances {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return bytes.Compare(addrs[i][:], addrs[j][:]) < 0 })
	for _, addr := range addrs {
		account, err := manager.GetAccount(addr)
		if err != nil {
			return nil, err
		}
		account.Balance.Set(spec.balances[addr])
		if err := manager.PutAccount(addr, account); err != nil {
			return nil, fmt.Errorf("alloc: %w", err)
		}
	}

	issuer := token.NewEngine()
	issuer.SetState(manager)
	issuer.SetNowFunc(func() int64 { return spec.genesisTimestamp.Unix() })
	ids := make([][32]byte, 0, len(spec.Assets))
	for i, a := range spec.Assets {
		owner := spec.owners[i]
		account, err := manager.GetAccount(owner)
		if err != nil {
			return nil, err
		}
		asset, err := issuer.Issue(owner, account.Nonce, token.Metadata{Name: a.Name, Symbol: a.Symbol, URI: a.URI})
		if err != nil {
			return nil, fmt.Errorf("asset[%d]: %w", i, err)
		}
		account.Nonce++
		if err := manager.PutAccount(owner, account); err != nil {
			return nil, err
		}
		ids = append(ids, asset.ID)
	}

	if err := manager.KVPut(chainIDKey, spec.ChainID); err != nil {
		return nil, err
	}
	if err := manager.KVPut(genesisTimeKey, uint64(spec.genesisTimestamp.Unix())); err != nil {
		return nil, err
	}
	if err := overlay.Commit(); err != nil {
		return nil, fmt.Errorf("commit genesis: %w", err)
	}
	return ids, nil
}

// StoredChainID returns the chain id recorded by Apply.
func StoredChainID(db storage.KeyValueStore) (uint64, bool, error) {
	var id uint64
	ok, err := state.NewManager(db).KVGet(chainIDKey, &id)
	return id, ok, err
}

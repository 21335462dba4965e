package state

import (
	"fmt"

	"auctionchain/native/token"
)

var (
	assetPrefix   = []byte("asset:")
	holdingPrefix = []byte("holding:")
)

type storedAsset struct {
	Issuer     [20]byte
	Name       string
	Symbol     string
	URI        string
	Collection [32]byte
	Supply     uint64
	CreatedAt  uint64
}

// AssetGet loads the asset definition for id.
func (m *Manager) AssetGet(id [32]byte) (*token.Asset, bool, error) {
	var stored storedAsset
	ok, err := m.get(prefixedKey(assetPrefix, id[:]), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &token.Asset{
		ID:         id,
		Issuer:     stored.Issuer,
		Name:       stored.Name,
		Symbol:     stored.Symbol,
		URI:        stored.URI,
		Collection: stored.Collection,
		Supply:     stored.Supply,
		CreatedAt:  int64(stored.CreatedAt),
	}, true, nil
}

// AssetPut persists an asset definition.
func (m *Manager) AssetPut(asset *token.Asset) error {
	if asset == nil {
		return fmt.Errorf("state: nil asset")
	}
	if asset.CreatedAt < 0 {
		return fmt.Errorf("state: negative asset timestamp")
	}
	return m.put(prefixedKey(assetPrefix, asset.ID[:]), &storedAsset{
		Issuer:     asset.Issuer,
		Name:       asset.Name,
		Symbol:     asset.Symbol,
		URI:        asset.URI,
		Collection: asset.Collection,
		Supply:     asset.Supply,
		CreatedAt:  uint64(asset.CreatedAt),
	})
}

// HoldingGet returns the units of asset held by owner.
func (m *Manager) HoldingGet(asset [32]byte, owner [20]byte) (uint64, error) {
	var amount uint64
	if _, err := m.get(prefixedKey(holdingPrefix, asset[:], owner[:]), &amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// HoldingPut sets the holding of owner. Empty holdings are deleted.
func (m *Manager) HoldingPut(asset [32]byte, owner [20]byte, amount uint64) error {
	key := prefixedKey(holdingPrefix, asset[:], owner[:])
	if amount == 0 {
		return m.kv.Delete(key)
	}
	return m.put(key, amount)
}

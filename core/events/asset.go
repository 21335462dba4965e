package events

import (
	"auctionchain/core/types"
	"auctionchain/crypto"
)

const (
	// TypeAssetIssued is emitted when a unique asset is minted.
	TypeAssetIssued = "asset.issued"
	// TypeAssetTransferred is emitted whenever custody of asset units moves.
	TypeAssetTransferred = "asset.transferred"
)

type AssetIssued struct {
	Asset      [32]byte
	Issuer     [20]byte
	Symbol     string
	URI        string
	Collection [32]byte
}

func (AssetIssued) EventType() string { return TypeAssetIssued }

func (e AssetIssued) Event() *types.Event {
	attrs := map[string]string{
		"asset":  hexID(e.Asset),
		"issuer": crypto.FormatAddress(e.Issuer),
		"symbol": e.Symbol,
		"uri":    e.URI,
	}
	if !zeroBytes(e.Collection[:]) {
		attrs["collection"] = hexID(e.Collection)
	}
	return &types.Event{Type: TypeAssetIssued, Attributes: attrs}
}

type AssetTransferred struct {
	Asset  [32]byte
	From   [20]byte
	To     [20]byte
	Amount uint64
}

func (AssetTransferred) EventType() string { return TypeAssetTransferred }

func (e AssetTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeAssetTransferred,
		Attributes: map[string]string{
			"asset":  hexID(e.Asset),
			"from":   crypto.FormatAddress(e.From),
			"to":     crypto.FormatAddress(e.To),
			"amount": formatUint(e.Amount),
		},
	}
}

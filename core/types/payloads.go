package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
)

// TransferPayload moves native currency from the sender to To.
type TransferPayload struct {
	To     [20]byte
	Amount *big.Int
}

// IssueAssetPayload mints a single unique asset to the sender. Collection is
// either empty or the 32-byte identifier of an existing asset.
type IssueAssetPayload struct {
	Name       string
	Symbol     string
	URI        string
	Collection []byte
}

// TransferAssetPayload moves the sender's unit of Asset to To.
type TransferAssetPayload struct {
	Asset [32]byte
	To    [20]byte
}

// AuctionOpenPayload locks the sender's asset into its vault and creates the
// auction record. StartTime is a unix timestamp in seconds.
type AuctionOpenPayload struct {
	Asset         [32]byte
	StartTime     uint64
	StartingPrice uint64
}

// AuctionBidPayload appends a bid from the sender.
type AuctionBidPayload struct {
	Asset  [32]byte
	Amount uint64
}

// AuctionRejectPayload removes the first bid placed by Bidder.
type AuctionRejectPayload struct {
	Asset  [32]byte
	Bidder [20]byte
}

// AuctionAcceptPayload settles the auction in favour of Winner.
type AuctionAcceptPayload struct {
	Asset  [32]byte
	Winner [20]byte
}

// AuctionCancelPayload closes an auction without bids.
type AuctionCancelPayload struct {
	Asset [32]byte
}

// EncodePayload rlp-encodes a payload struct for Transaction.Payload.
func EncodePayload(v interface{}) ([]byte, error) {
	return rlp.EncodeToBytes(v)
}

// DecodePayload decodes Transaction.Payload into v.
func DecodePayload(data []byte, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("tx: empty payload")
	}
	if err := rlp.DecodeBytes(data, v); err != nil {
		return fmt.Errorf("tx: decode payload: %w", err)
	}
	return nil
}

package state

import (
	"fmt"
	"math/big"

	"auctionchain/native/auction"
)

var (
	auctionPrefix   = []byte("auction:")
	tombstonePrefix = []byte("auction-closed:")
)

type storedBid struct {
	Bidder [20]byte
	Amount uint64
}

type storedAuction struct {
	Seller        [20]byte
	Authority     [20]byte
	Bump          uint8
	StartTime     uint64
	StartingPrice uint64
	Bids          []storedBid
	Deposit       *big.Int
	CreatedAt     uint64
}

// AuctionGet loads the live record for asset.
func (m *Manager) AuctionGet(asset [32]byte) (*auction.Auction, bool, error) {
	var stored storedAuction
	ok, err := m.get(prefixedKey(auctionPrefix, asset[:]), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	rec := &auction.Auction{
		Asset:         asset,
		Seller:        stored.Seller,
		Authority:     stored.Authority,
		Bump:          stored.Bump,
		StartTime:     int64(stored.StartTime),
		StartingPrice: stored.StartingPrice,
		Deposit:       stored.Deposit,
		CreatedAt:     int64(stored.CreatedAt),
	}
	if rec.Deposit == nil {
		rec.Deposit = big.NewInt(0)
	}
	if len(stored.Bids) > 0 {
		rec.Bids = make([]auction.Bid, len(stored.Bids))
		for i, bid := range stored.Bids {
			rec.Bids[i] = auction.Bid{Bidder: bid.Bidder, Amount: bid.Amount}
		}
	}
	return rec, true, nil
}

// AuctionPut persists a live record.
func (m *Manager) AuctionPut(rec *auction.Auction) error {
	if rec == nil {
		return fmt.Errorf("state: nil auction")
	}
	if rec.StartTime < 0 || rec.CreatedAt < 0 {
		return fmt.Errorf("state: negative auction timestamp")
	}
	stored := &storedAuction{
		Seller:        rec.Seller,
		Authority:     rec.Authority,
		Bump:          rec.Bump,
		StartTime:     uint64(rec.StartTime),
		StartingPrice: rec.StartingPrice,
		Deposit:       rec.Deposit,
		CreatedAt:     uint64(rec.CreatedAt),
	}
	if stored.Deposit == nil {
		stored.Deposit = big.NewInt(0)
	}
	stored.Bids = make([]storedBid, len(rec.Bids))
	for i, bid := range rec.Bids {
		stored.Bids[i] = storedBid{Bidder: bid.Bidder, Amount: bid.Amount}
	}
	return m.put(prefixedKey(auctionPrefix, rec.Asset[:]), stored)
}

// AuctionClose deletes the record and writes the tombstone consuming the
// asset's record address.
func (m *Manager) AuctionClose(asset [32]byte) error {
	if err := m.kv.Delete(prefixedKey(auctionPrefix, asset[:])); err != nil {
		return err
	}
	return m.put(prefixedKey(tombstonePrefix, asset[:]), true)
}

// AuctionClosed reports whether an auction for asset was settled or cancelled.
func (m *Manager) AuctionClosed(asset [32]byte) (bool, error) {
	return m.get(prefixedKey(tombstonePrefix, asset[:]), nil)
}

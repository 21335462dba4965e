package auction

import "math/big"

// Bid is a bidder's unescrowed promise to pay Amount if chosen.
type Bid struct {
	Bidder [20]byte
	Amount uint64
}

// Auction is the persistent record of one sale. It lives at the authority
// address derived from the asset identifier and exists exactly while the
// vault holds the asset.
type Auction struct {
	Asset     [32]byte
	Seller    [20]byte
	Authority [20]byte
	Bump      uint8
	StartTime int64
	// StartingPrice is advisory and never compared with bid amounts.
	StartingPrice uint64
	Bids          []Bid
	Deposit       *big.Int
	CreatedAt     int64
}

// Clone returns a deep copy of the record.
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Bids != nil {
		clone.Bids = append(make([]Bid, 0, len(a.Bids)), a.Bids...)
	}
	if a.Deposit != nil {
		clone.Deposit = new(big.Int).Set(a.Deposit)
	} else {
		clone.Deposit = big.NewInt(0)
	}
	return &clone
}

package auction

// PlaceBid appends a bid, preserving insertion order. Bidders may hold any
// number of bids and amounts are not compared. Returns the new bid count.
func (a *Auction) PlaceBid(bid Bid, maxBids int) (int, error) {
	if len(a.Bids) >= maxBids {
		return len(a.Bids), ErrCapacityExceeded
	}
	a.Bids = append(a.Bids, bid)
	return len(a.Bids), nil
}

// FindBid returns the earliest bid placed by bidder and its position.
func (a *Auction) FindBid(bidder [20]byte) (Bid, int, error) {
	for i, bid := range a.Bids {
		if bid.Bidder == bidder {
			return bid, i, nil
		}
	}
	return Bid{}, -1, ErrBidNotFound
}

// RejectBid removes only the earliest bid placed by bidder.
func (a *Auction) RejectBid(bidder [20]byte) (Bid, error) {
	bid, idx, err := a.FindBid(bidder)
	if err != nil {
		return Bid{}, err
	}
	a.Bids = append(a.Bids[:idx:idx], a.Bids[idx+1:]...)
	return bid, nil
}

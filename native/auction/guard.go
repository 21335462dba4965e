package auction

import "fmt"

// Phase is the lifecycle position of an asset's auction.
type Phase uint8

const (
	PhaseUnopened Phase = iota
	PhaseOpen
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseUnopened:
		return "unopened"
	case PhaseOpen:
		return "open"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Live reports whether time-gated operations are admitted at now.
func (a *Auction) Live(now int64) bool {
	return now >= a.StartTime
}

func requireSeller(a *Auction, caller [20]byte) error {
	if a.Seller != caller {
		return fmt.Errorf("%w: caller is not the seller", ErrUnauthorized)
	}
	return nil
}

func requireStarted(a *Auction, now int64) error {
	if !a.Live(now) {
		return ErrAuctionNotStarted
	}
	return nil
}

func requireNoBids(a *Auction) error {
	if len(a.Bids) > 0 {
		return ErrBidsPlaced
	}
	return nil
}

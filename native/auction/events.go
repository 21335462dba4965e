package auction

import (
	"encoding/hex"
	"strconv"

	"auctionchain/core/types"
	"auctionchain/crypto"
)

const (
	EventTypeAuctionOpened    = "auction.opened"
	EventTypeBidPlaced        = "auction.bid_placed"
	EventTypeBidRejected      = "auction.bid_rejected"
	EventTypeAuctionSettled   = "auction.settled"
	EventTypeAuctionCancelled = "auction.cancelled"
)

type auctionEvent struct {
	evt *types.Event
}

func (e auctionEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e auctionEvent) Event() *types.Event { return e.evt }

// NewOpenedEvent is emitted when the vault takes custody and the record is
// created.
func NewOpenedEvent(a *Auction) *types.Event {
	evt := newAuctionEvent(EventTypeAuctionOpened, a)
	evt.Attributes["startTime"] = strconv.FormatInt(a.StartTime, 10)
	evt.Attributes["startingPrice"] = strconv.FormatUint(a.StartingPrice, 10)
	evt.Attributes["deposit"] = a.Deposit.String()
	return evt
}

func NewBidPlacedEvent(a *Auction, bid Bid) *types.Event {
	evt := newBidEvent(EventTypeBidPlaced, a, bid)
	evt.Attributes["bids"] = strconv.Itoa(len(a.Bids))
	return evt
}

func NewBidRejectedEvent(a *Auction, bid Bid) *types.Event {
	evt := newBidEvent(EventTypeBidRejected, a, bid)
	evt.Attributes["bids"] = strconv.Itoa(len(a.Bids))
	return evt
}

// NewSettledEvent records the winning bid. The record no longer exists once
// this is emitted.
func NewSettledEvent(a *Auction, bid Bid) *types.Event {
	evt := newBidEvent(EventTypeAuctionSettled, a, bid)
	evt.Attributes["winner"] = evt.Attributes["bidder"]
	delete(evt.Attributes, "bidder")
	return evt
}

func NewCancelledEvent(a *Auction) *types.Event {
	return newAuctionEvent(EventTypeAuctionCancelled, a)
}

func newAuctionEvent(eventType string, a *Auction) *types.Event {
	attrs := map[string]string{}
	if a != nil {
		attrs["asset"] = hex.EncodeToString(a.Asset[:])
		attrs["seller"] = crypto.FormatAddress(a.Seller)
		attrs["authority"] = crypto.FormatAddress(a.Authority)
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

func newBidEvent(eventType string, a *Auction, bid Bid) *types.Event {
	evt := newAuctionEvent(eventType, a)
	evt.Attributes["bidder"] = crypto.FormatAddress(bid.Bidder)
	evt.Attributes["amount"] = strconv.FormatUint(bid.Amount, 10)
	return evt
}

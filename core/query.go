package core

import (
	"errors"
	"math/big"

	"auctionchain/core/state"
	"auctionchain/core/types"
	"auctionchain/native/auction"
	"auctionchain/native/token"
)

// AuctionView is a read-only snapshot of an auction record together with its
// lifecycle phase. Record is nil unless the phase is open.
type AuctionView struct {
	Phase  auction.Phase
	Record *auction.Auction
	Live   bool
}

func (n *Node) reader() *execution {
	return n.newExecution(n.db, n.nowFn().Unix())
}

// Account returns the committed account for addr.
func (n *Node) Account(addr [20]byte) (*types.Account, error) {
	return state.NewManager(n.db).GetAccount(addr)
}

// Balance returns the committed native balance of addr.
func (n *Node) Balance(addr [20]byte) (*big.Int, error) {
	return n.reader().bank.Balance(addr)
}

// Asset returns the committed asset definition.
func (n *Node) Asset(id [32]byte) (*token.Asset, error) {
	return n.reader().token.Asset(id)
}

// Holding returns how many units of asset owner holds.
func (n *Node) Holding(asset [32]byte, owner [20]byte) (uint64, error) {
	return n.reader().token.Holding(asset, owner)
}

// Auction returns the current view of the auction for asset. Unopened and
// closed assets are reported through Phase rather than as errors.
func (n *Node) Auction(asset [32]byte) (*AuctionView, error) {
	exec := n.reader()
	phase, err := exec.auction.Phase(asset)
	if err != nil {
		return nil, err
	}
	view := &AuctionView{Phase: phase}
	if phase != auction.PhaseOpen {
		return view, nil
	}
	rec, err := exec.auction.Get(asset)
	if err != nil {
		if errors.Is(err, auction.ErrAuctionNotFound) {
			return &AuctionView{Phase: auction.PhaseClosed}, nil
		}
		return nil, err
	}
	view.Record = rec
	view.Live = rec.Live(n.nowFn().Unix())
	return view, nil
}

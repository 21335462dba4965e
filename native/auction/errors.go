package auction

import (
	"errors"
	"fmt"

	"auctionchain/native/common"
)

var (
	ErrAuctionNotStarted = errors.New("auction: not started")
	// ErrAuctionEnded and ErrAuctionNotEnded are reserved for end-time
	// enforcement. Auctions currently have no end time, so no transition
	// returns them.
	ErrAuctionEnded     = errors.New("auction: ended")
	ErrAuctionNotEnded  = errors.New("auction: not ended")
	ErrBidsPlaced       = errors.New("auction: bids placed")
	ErrBidNotFound      = errors.New("auction: bid not found")
	ErrCapacityExceeded = errors.New("auction: bid capacity exceeded")
	ErrUnauthorized     = common.ErrUnauthorized

	ErrAuctionNotFound = errors.New("auction: not found")
	// ErrAuctionClosed marks an asset whose auction was settled or cancelled.
	// The derived record address is consumed and cannot be reopened.
	ErrAuctionClosed = fmt.Errorf("%w: record closed", ErrAuctionNotFound)
	ErrAuctionExists = errors.New("auction: already open")
	ErrVaultNotEmpty = errors.New("auction: vault not empty")
	// ErrVaultTransfer rejects moving an asset into its vault outside open.
	ErrVaultTransfer    = errors.New("auction: asset may enter its vault only by opening an auction")
	ErrInvalidStartTime = errors.New("auction: start time must not be negative")

	errNilState    = errors.New("auction engine: state not configured")
	errNilCustody  = errors.New("auction engine: custody not configured")
	errNilPayments = errors.New("auction engine: payments not configured")
)

package auction

import (
	"fmt"
	"math/big"
)

const (
	DefaultMaxBids = 64

	recordHeaderSize = 32 + 20 + 20 + 1 + 8 + 8 + 32 + 8 + 4
	bidEntrySize     = 20 + 8
)

// Params bounds the storage footprint of a record. The full allowance is
// reserved when the auction opens, so the record never grows past MaxBids.
type Params struct {
	MaxBids     int
	RentPerByte uint64
}

func DefaultParams() Params {
	return Params{MaxBids: DefaultMaxBids}
}

func (p Params) Validate() error {
	if p.MaxBids <= 0 {
		return fmt.Errorf("auction: max bids must be positive")
	}
	return nil
}

// RecordSize returns the bytes reserved for a record holding up to maxBids
// bids.
func RecordSize(maxBids int) uint64 {
	if maxBids < 0 {
		maxBids = 0
	}
	return recordHeaderSize + uint64(maxBids)*bidEntrySize
}

// Deposit is the storage allowance the seller pays at open and receives back
// when the record is destroyed.
func (p Params) Deposit() *big.Int {
	size := new(big.Int).SetUint64(RecordSize(p.MaxBids))
	return size.Mul(size, new(big.Int).SetUint64(p.RentPerByte))
}

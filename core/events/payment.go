package events

import (
	"math/big"

	"auctionchain/core/types"
	"auctionchain/crypto"
)

// TypePayment is emitted for every native currency movement.
const TypePayment = "bank.payment"

// Payment records a debit of From and credit of To. Purpose names the
// operation that moved the funds, for example "auction.settlement".
type Payment struct {
	From    [20]byte
	To      [20]byte
	Amount  *big.Int
	Purpose string
}

func (Payment) EventType() string { return TypePayment }

func (p Payment) Event() *types.Event {
	purpose := p.Purpose
	if purpose == "" {
		purpose = "transfer"
	}
	return &types.Event{Type: TypePayment, Attributes: map[string]string{
		"payer":   crypto.FormatAddress(p.From),
		"payee":   crypto.FormatAddress(p.To),
		"amount":  formatAmount(p.Amount),
		"purpose": purpose,
	}}
}

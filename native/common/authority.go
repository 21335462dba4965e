package common

import (
	"errors"
	"fmt"

	"auctionchain/crypto"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrSeedsMismatch = errors.New("authority seeds do not derive the source account")
)

// Authorizer decides whether a debit from addr may proceed. Custody and
// payment primitives consult it before moving anything out of an account.
type Authorizer interface {
	Authorize(addr [20]byte) error
}

// SignerSet authorizes the accounts that signed the enclosing transaction.
type SignerSet map[[20]byte]struct{}

// NewSignerSet builds a set from the recovered transaction signers.
func NewSignerSet(signers ...[20]byte) SignerSet {
	set := make(SignerSet, len(signers))
	for _, s := range signers {
		set[s] = struct{}{}
	}
	return set
}

func (s SignerSet) Authorize(addr [20]byte) error {
	if _, ok := s[addr]; ok {
		return nil
	}
	return fmt.Errorf("%w: %s did not sign", ErrUnauthorized, crypto.FormatAddress(addr))
}

// Has reports whether addr signed.
func (s SignerSet) Has(addr [20]byte) bool {
	_, ok := s[addr]
	return ok
}

// ProgramSigner authorizes a program-derived account. No key exists for such
// an account, so the proof is the seed list itself: it must recompute to
// exactly the account being debited.
type ProgramSigner struct {
	Program [20]byte
	Seeds   [][]byte
}

func (p ProgramSigner) Authorize(addr [20]byte) error {
	derived, err := crypto.CreateProgramAddress(p.Program, p.Seeds...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSeedsMismatch, err)
	}
	if derived != addr {
		return fmt.Errorf("%w: derived %s, source %s", ErrSeedsMismatch, crypto.FormatAddress(derived), crypto.FormatAddress(addr))
	}
	return nil
}

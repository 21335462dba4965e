package crypto

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// MaxSeeds bounds the number of seed segments accepted for a derived address.
	MaxSeeds = 16
	// MaxSeedLength bounds the size of a single seed segment.
	MaxSeedLength = 32
)

var programDerivedMarker = []byte("ProgramDerivedAddress")

var (
	ErrMaxSeedLength = errors.New("crypto: seed exceeds maximum length")
	ErrTooManySeeds  = errors.New("crypto: too many seeds")
	ErrOnCurve       = errors.New("crypto: derived digest is a valid curve point")
	ErrNoViableBump  = errors.New("crypto: unable to find a viable bump seed")
)

// CreateProgramAddress computes the address owned by program for the exact seed
// list supplied. No key is known for the result because finding one would mean
// a keccak preimage: account addresses are truncated hashes of public keys, so
// the off-curve test says nothing about signing ability. Candidates whose
// digest is a secp256k1 x-coordinate are still rejected with ErrOnCurve so the
// bump search stays stable for derivations already recorded in state.
func CreateProgramAddress(program [20]byte, seeds ...[]byte) ([20]byte, error) {
	var addr [20]byte
	if len(seeds) > MaxSeeds {
		return addr, ErrTooManySeeds
	}
	parts := make([][]byte, 0, len(seeds)+2)
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return addr, fmt.Errorf("%w: %d bytes", ErrMaxSeedLength, len(seed))
		}
		parts = append(parts, seed)
	}
	parts = append(parts, program[:], programDerivedMarker)
	digest := crypto.Keccak256(parts...)
	if isCurvePoint(digest) {
		return addr, ErrOnCurve
	}
	copy(addr[:], digest[len(digest)-len(addr):])
	return addr, nil
}

// FindProgramAddress searches bump seeds from 255 downward and returns the
// first address that CreateProgramAddress accepts together with its bump. The
// result depends only on program and seeds.
func FindProgramAddress(program [20]byte, seeds ...[]byte) ([20]byte, uint8, error) {
	if len(seeds)+1 > MaxSeeds {
		return [20]byte{}, 0, ErrTooManySeeds
	}
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(program, withBump...)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return [20]byte{}, 0, err
		}
	}
	return [20]byte{}, 0, ErrNoViableBump
}

// ModuleAddress returns the deterministic address identifying a native module.
func ModuleAddress(name string) [20]byte {
	var addr [20]byte
	digest := crypto.Keccak256([]byte("module:"), []byte(name))
	copy(addr[:], digest[len(digest)-len(addr):])
	return addr
}

// isCurvePoint reports whether digest is the x-coordinate of a secp256k1 point.
func isCurvePoint(digest []byte) bool {
	compressed := make([]byte, 0, len(digest)+1)
	compressed = append(compressed, 0x02)
	compressed = append(compressed, digest...)
	_, err := crypto.DecompressPubkey(compressed)
	return err == nil
}

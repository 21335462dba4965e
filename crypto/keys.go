package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/crypto"
)

// AccountHRP is the bech32 human-readable part of every account, vault
// authority and program address.
const AccountHRP = "auc"

var ErrAddressPrefix = errors.New("crypto: unexpected address prefix")

// Address is a 20-byte account identifier rendered as bech32.
type Address struct {
	hrp string
	raw [20]byte
}

// NewAddress binds raw to the account prefix.
func NewAddress(raw [20]byte) Address {
	return Address{hrp: AccountHRP, raw: raw}
}

// WithHRP returns a copy of the address rendered under another prefix.
func (a Address) WithHRP(hrp string) Address {
	a.hrp = hrp
	return a
}

func (a Address) HRP() string {
	if a.hrp == "" {
		return AccountHRP
	}
	return a.hrp
}

// Array returns the raw form used by state and the native modules.
func (a Address) Array() [20]byte { return a.raw }

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.raw[:], 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(a.HRP(), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// DecodeAddress parses a bech32 address under any prefix.
func DecodeAddress(s string) (Address, error) {
	hrp, data, err := bech32.Decode(strings.TrimSpace(s))
	if err != nil {
		return Address{}, fmt.Errorf("crypto: invalid bech32 address: %w", err)
	}
	conv, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: invalid address payload: %w", err)
	}
	var raw [20]byte
	if len(conv) != len(raw) {
		return Address{}, fmt.Errorf("crypto: address must decode to 20 bytes, got %d", len(conv))
	}
	copy(raw[:], conv)
	return Address{hrp: hrp, raw: raw}, nil
}

// ParseAddress decodes an account address and rejects foreign prefixes.
func ParseAddress(s string) ([20]byte, error) {
	addr, err := DecodeAddress(s)
	if err != nil {
		return [20]byte{}, err
	}
	if addr.HRP() != AccountHRP {
		return [20]byte{}, fmt.Errorf("%w: want %s, got %s", ErrAddressPrefix, AccountHRP, addr.HRP())
	}
	return addr.raw, nil
}

// FormatAddress renders raw with the account prefix.
func FormatAddress(raw [20]byte) string {
	return NewAddress(raw).String()
}

// PrivateKey is a secp256k1 signing key. Transactions and co-signatures are
// produced with the embedded ecdsa key.
type PrivateKey struct {
	*ecdsa.PrivateKey
}

type PublicKey struct {
	*ecdsa.PublicKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

// Address is the keccak-derived account of the key, the same value
// transaction signature recovery yields.
func (k *PublicKey) Address() Address {
	var raw [20]byte
	copy(raw[:], crypto.PubkeyToAddress(*k.PublicKey).Bytes())
	return NewAddress(raw)
}

package token

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
)

// Asset describes a unique token. Exactly one unit exists once issued; the
// unit moves between holding accounts keyed by (asset, owner).
type Asset struct {
	ID         [32]byte
	Issuer     [20]byte
	Name       string
	Symbol     string
	URI        string
	Collection [32]byte
	Supply     uint64
	CreatedAt  int64
}

// Clone returns a copy of the asset.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

// HasCollection reports whether the asset references a parent collection.
func (a *Asset) HasCollection() bool {
	return a != nil && a.Collection != ([32]byte{})
}

// AssetID derives the identifier of the asset minted by issuer with the given
// account nonce. Nonces never repeat for an issuer, so neither do identifiers.
func AssetID(issuer [20]byte, nonce uint64) [32]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce)
	var id [32]byte
	copy(id[:], ethcrypto.Keccak256([]byte("asset:"), issuer[:], buf[:]))
	return id
}

// FormatAssetID renders an identifier as lowercase hex without a prefix.
func FormatAssetID(id [32]byte) string {
	return hex.EncodeToString(id[:])
}

// ParseAssetID accepts the output of FormatAssetID with or without a 0x
// prefix.
func ParseAssetID(s string) ([32]byte, error) {
	var id [32]byte
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return id, fmt.Errorf("asset id: %w", err)
	}
	if len(raw) != len(id) {
		return id, fmt.Errorf("asset id: expected %d bytes, got %d", len(id), len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// Metadata carries the descriptive fields supplied at issuance.
type Metadata struct {
	Name       string
	Symbol     string
	URI        string
	Collection []byte
}

// Sanitize trims the metadata and enforces field limits.
func (m Metadata) Sanitize() (Metadata, error) {
	out := Metadata{
		Name:   strings.TrimSpace(m.Name),
		Symbol: strings.ToUpper(strings.TrimSpace(m.Symbol)),
		URI:    strings.TrimSpace(m.URI),
	}
	if out.Name == "" {
		return Metadata{}, fmt.Errorf("%w: name required", ErrInvalidMetadata)
	}
	if utf8.RuneCountInString(out.Name) > MaxNameLength {
		return Metadata{}, fmt.Errorf("%w: name exceeds %d characters", ErrInvalidMetadata, MaxNameLength)
	}
	if utf8.RuneCountInString(out.Symbol) > MaxSymbolLength {
		return Metadata{}, fmt.Errorf("%w: symbol exceeds %d characters", ErrInvalidMetadata, MaxSymbolLength)
	}
	if len(out.URI) > MaxURILength {
		return Metadata{}, fmt.Errorf("%w: uri exceeds %d bytes", ErrInvalidMetadata, MaxURILength)
	}
	switch len(m.Collection) {
	case 0:
	case 32:
		out.Collection = append([]byte(nil), m.Collection...)
	default:
		return Metadata{}, fmt.Errorf("%w: collection must be 32 bytes", ErrInvalidMetadata)
	}
	return out, nil
}

package genesis

import (
	"bytes"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"auctionchain/crypto"
	"auctionchain/native/token"
)

type GenesisSpec struct {
	GenesisTime string            `yaml:"genesisTime"`
	ChainID     uint64            `yaml:"chainId"`
	Alloc       map[string]string `yaml:"alloc"` // addr -> native balance
	Assets      []AssetSpec       `yaml:"assets"`

	genesisTimestamp time.Time
	balances         map[[20]byte]*big.Int
	owners           [][20]byte
}

// AssetSpec pre-issues a unique asset to Owner.
type AssetSpec struct {
	Owner  string `yaml:"owner"`
	Name   string `yaml:"name"`
	Symbol string `yaml:"symbol"`
	URI    string `yaml:"uri"`
}

func LoadGenesisSpec(path string) (*GenesisSpec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	spec, err := ParseGenesisSpec(raw)
	if err != nil {
		return nil, fmt.Errorf("genesis spec %q: %w", path, err)
	}
	return spec, nil
}

// ParseGenesisSpec decodes and validates a YAML genesis document. Unknown
// fields are rejected.
func ParseGenesisSpec(raw []byte) (*GenesisSpec, error) {
	var spec GenesisSpec
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("invalid: %w", err)
	}
	return &spec, nil
}

func (s *GenesisSpec) GenesisTimestamp() time.Time { return s.genesisTimestamp }

func (s *GenesisSpec) validate() error {
	ts, err := parseGenesisTime(s.GenesisTime)
	if err != nil {
		return err
	}
	s.genesisTimestamp = ts
	if s.ChainID == 0 {
		return fmt.Errorf("chainId must be provided")
	}

	s.balances = make(map[[20]byte]*big.Int, len(s.Alloc))
	for addrStr, amountStr := range s.Alloc {
		addr, err := crypto.ParseAddress(strings.TrimSpace(addrStr))
		if err != nil {
			return fmt.Errorf("alloc[%q]: %w", addrStr, err)
		}
		amount, err := parseAmountString(amountStr)
		if err != nil {
			return fmt.Errorf("alloc[%q]: %w", addrStr, err)
		}
		if _, dup := s.balances[addr]; dup {
			return fmt.Errorf("alloc[%q]: duplicate address", addrStr)
		}
		s.balances[addr] = amount
	}

	s.owners = make([][20]byte, len(s.Assets))
	for i := range s.Assets {
		a := &s.Assets[i]
		owner, err := crypto.ParseAddress(strings.TrimSpace(a.Owner))
		if err != nil {
			return fmt.Errorf("asset[%d]: owner: %w", i, err)
		}
		if _, err := (token.Metadata{Name: a.Name, Symbol: a.Symbol, URI: a.URI}).Sanitize(); err != nil {
			return fmt.Errorf("asset[%d]: %w", i, err)
		}
		s.owners[i] = owner
	}
	return nil
}

func parseAmountString(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

func parseGenesisTime(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("genesisTime must be provided")
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("invalid genesisTime %q", value)
}

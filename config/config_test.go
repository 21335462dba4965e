package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != BackendLevelDB || cfg.Auction.MaxBids != 64 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config to be written: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.RPCAddress != cfg.RPCAddress || again.ChainID != cfg.ChainID {
		t.Fatalf("persisted config differs: %+v vs %+v", again, cfg)
	}
}

func TestLoadParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `RPCAddress = "127.0.0.1:9000"
DataDir = "./data"
Backend = "Bolt"
GenesisFile = "genesis.yaml"
ChainID = 42

[auction]
MaxBids = 8
RentPerByte = 3

[rpc]
AuthToken = "from-file"
RequestsPerMinute = 120
Burst = 10

[pauses]
Auction = true
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AUCTION_RPC_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != BackendBolt {
		t.Fatalf("expected backend to normalise to bolt, got %q", cfg.Backend)
	}
	if cfg.Auction.MaxBids != 8 || cfg.Auction.RentPerByte != 3 {
		t.Fatalf("unexpected auction config: %+v", cfg.Auction)
	}
	if cfg.RPC.AuthToken != "from-env" {
		t.Fatalf("expected env override, got %q", cfg.RPC.AuthToken)
	}
	if cfg.RPC.WriteTimeout != 15 {
		t.Fatalf("expected unset keys to keep defaults, got %d", cfg.RPC.WriteTimeout)
	}
	if !cfg.Pauses.IsPaused("auction") || cfg.Pauses.IsPaused("bank") {
		t.Fatalf("unexpected pause switches: %+v", cfg.Pauses)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("ListenAddress = \":6001\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "ListenAddress") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Backend = "postgres"
	cfg.ChainID = 0
	cfg.Auction.MaxBids = 0
	cfg.Telemetry.SampleRatio = 2

	err := cfg.Validate()
	if got := len(multierr.Errors(err)); got != 4 {
		t.Fatalf("expected 4 validation errors, got %d: %v", got, err)
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

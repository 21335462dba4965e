package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
)

const (
	BackendLevelDB = "leveldb"
	BackendBolt    = "bolt"
	BackendMemory  = "memory"
)

type Config struct {
	RPCAddress  string    `toml:"RPCAddress"`
	DataDir     string    `toml:"DataDir"`
	Backend     string    `toml:"Backend"`
	GenesisFile string    `toml:"GenesisFile"`
	ChainID     uint64    `toml:"ChainID"`
	NetworkName string    `toml:"NetworkName"`
	Environment string    `toml:"Environment" env:"AUCTION_ENV"`
	Auction     Auction   `toml:"auction"`
	RPC         RPC       `toml:"rpc"`
	Telemetry   Telemetry `toml:"telemetry"`
	Logging     Logging   `toml:"logging"`
	Pauses      Pauses    `toml:"pauses"`
}

// Default returns the configuration written for a fresh node.
func Default() *Config {
	return &Config{
		RPCAddress:  ":8080",
		DataDir:     "./auction-data",
		Backend:     BackendLevelDB,
		ChainID:     1337,
		NetworkName: "auction-local",
		Environment: "dev",
		Auction: Auction{
			MaxBids: 64,
		},
		RPC: RPC{
			JWTIssuer:         "auctionchain",
			RequestsPerMinute: 600,
			Burst:             60,
			ReadTimeout:       15,
			WriteTimeout:      15,
		},
		Telemetry: Telemetry{
			Endpoint:    "localhost:4318",
			Insecure:    true,
			SampleRatio: 1,
		},
		Logging: Logging{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
	}
}

// Load loads the configuration from the given path. A default file is
// written when none exists. Environment variables override secrets and
// endpoints after the file is decoded.
func Load(path string) (*Config, error) {
	var cfg *Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		created, err := createDefault(path)
		if err != nil {
			return nil, err
		}
		cfg = created
	} else {
		cfg = Default()
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, err
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, key := range undecoded {
				keys[i] = key.String()
			}
			return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config env overrides: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "auction-local"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"auctionchain/config"
	"auctionchain/core/genesis"
	"auctionchain/crypto"
	"auctionchain/storage"
)

func TestResolveGenesisPathPrecedence(t *testing.T) {
	env := map[string]string{genesisPathEnv: " /env/genesis.yaml "}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	require.Equal(t, "/cli.yaml", resolveGenesisPath("/cli.yaml", "/cfg.yaml", lookup))
	require.Equal(t, "/env/genesis.yaml", resolveGenesisPath("", "/cfg.yaml", lookup))
	require.Equal(t, "/cfg.yaml", resolveGenesisPath("", "/cfg.yaml", nil))
}

func TestOpenDatabaseBackends(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	cfg.Backend = config.BackendMemory
	db, err := openDatabase(cfg)
	require.NoError(t, err)
	require.IsType(t, &storage.MemDB{}, db)
	db.Close()

	cfg.Backend = config.BackendBolt
	db, err = openDatabase(cfg)
	require.NoError(t, err)
	db.Close()
	_, err = os.Stat(filepath.Join(cfg.DataDir, "state.db"))
	require.NoError(t, err)

	cfg.Backend = "rocks"
	_, err = openDatabase(cfg)
	require.Error(t, err)
}

func TestApplyGenesisChecksChainID(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	owner := key.PubKey().Address().String()
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	doc := "genesisTime: \"2024-01-01T00:00:00Z\"\nchainId: 5\nalloc:\n  " + owner + ": \"100\"\nassets:\n  - owner: " + owner + "\n    name: Lot\n    symbol: LOT\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := storage.NewMemDB()
	require.ErrorIs(t, applyGenesis(db, path, 6, logger), genesis.ErrChainIDMismatch)
	require.NoError(t, applyGenesis(db, path, 5, logger))
	require.NoError(t, applyGenesis(db, path, 5, logger))
	require.ErrorIs(t, applyGenesis(db, "", 6, logger), genesis.ErrChainIDMismatch)
	require.NoError(t, applyGenesis(db, "", 5, logger))
}

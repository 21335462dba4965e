package genesis

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"auctionchain/core/state"
	"auctionchain/crypto"
	"auctionchain/native/token"
	"auctionchain/storage"
)

func testGenesisYAML(owner, other string) string {
	return `genesisTime: "2024-01-01T00:00:00Z"
chainId: 42
alloc:
  ` + owner + `: "1000"
  ` + other + `: "2000"
assets:
  - owner: ` + owner + `
    name: First Light
    symbol: ART
    uri: ipfs://first-light
  - owner: ` + owner + `
    name: Second Light
`
}

func TestLoadGenesisSpecAndApply(t *testing.T) {
	owner := [20]byte{0x01}
	other := [20]byte{0x02}
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	if err := os.WriteFile(path, []byte(testGenesisYAML(crypto.FormatAddress(owner), crypto.FormatAddress(other))), 0o600); err != nil {
		t.Fatalf("write genesis: %v", err)
	}
	spec, err := LoadGenesisSpec(path)
	if err != nil {
		t.Fatalf("load genesis: %v", err)
	}
	if spec.ChainID != 42 || spec.GenesisTimestamp().Unix() != 1_704_067_200 {
		t.Fatalf("unexpected spec header: %+v", spec)
	}

	db := storage.NewMemDB()
	defer db.Close()
	ids, err := Apply(spec, db)
	if err != nil {
		t.Fatalf("apply genesis: %v", err)
	}
	if len(ids) != 2 || ids[0] != token.AssetID(owner, 0) || ids[1] != token.AssetID(owner, 1) {
		t.Fatalf("unexpected asset ids: %x", ids)
	}

	mgr := state.NewManager(db)
	acc, err := mgr.GetAccount(owner)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if acc.Balance.Int64() != 1000 || acc.Nonce != 2 {
		t.Fatalf("unexpected owner account: %+v", acc)
	}
	held, err := mgr.HoldingGet(ids[0], owner)
	if err != nil || held != 1 {
		t.Fatalf("expected owner to hold asset, got %d (%v)", held, err)
	}
	asset, ok, err := mgr.AssetGet(ids[0])
	if err != nil || !ok {
		t.Fatalf("asset missing: ok=%v err=%v", ok, err)
	}
	if asset.Name != "First Light" || asset.CreatedAt != 1_704_067_200 {
		t.Fatalf("unexpected asset: %+v", asset)
	}

	chainID, ok, err := StoredChainID(db)
	if err != nil || !ok || chainID != 42 {
		t.Fatalf("chain id not recorded: %d ok=%v err=%v", chainID, ok, err)
	}

	before := db.Len()
	if ids, err := Apply(spec, db); err != nil || ids != nil {
		t.Fatalf("re-applying genesis must be a no-op: ids=%v err=%v", ids, err)
	}
	if db.Len() != before {
		t.Fatalf("re-applying genesis wrote state")
	}

	spec.ChainID = 43
	if _, err := Apply(spec, db); !errors.Is(err, ErrChainIDMismatch) {
		t.Fatalf("expected ErrChainIDMismatch, got %v", err)
	}
}

func TestParseGenesisSpecRejectsInvalid(t *testing.T) {
	owner := crypto.FormatAddress([20]byte{0x01})
	cases := map[string]string{
		"unknown field": "genesisTime: \"2024-01-01T00:00:00Z\"\nchainId: 1\nvalidators: []\n",
		"missing time":  "chainId: 1\n",
		"missing chain": "genesisTime: \"2024-01-01T00:00:00Z\"\n",
		"bad address":   "genesisTime: \"2024-01-01T00:00:00Z\"\nchainId: 1\nalloc:\n  nope: \"1\"\n",
		"negative":      "genesisTime: \"2024-01-01T00:00:00Z\"\nchainId: 1\nalloc:\n  " + owner + ": \"-1\"\n",
		"asset no name": "genesisTime: \"2024-01-01T00:00:00Z\"\nchainId: 1\nassets:\n  - owner: " + owner + "\n",
	}
	for name, doc := range cases {
		if _, err := ParseGenesisSpec([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

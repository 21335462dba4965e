package state

import (
	"math/big"
	"testing"

	"auctionchain/core/types"
	"auctionchain/native/auction"
	"auctionchain/native/token"
	"auctionchain/storage"
)

func newTestManager(t *testing.T) (*Manager, *storage.MemDB) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return NewManager(db), db
}

func TestAccountDefaults(t *testing.T) {
	mgr, _ := newTestManager(t)
	addr := [20]byte{0x01}

	acc, err := mgr.GetAccount(addr)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if acc.Nonce != 0 || acc.Balance == nil || acc.Balance.Sign() != 0 {
		t.Fatalf("expected zero account, got %+v", acc)
	}

	if err := mgr.PutAccount(addr, &types.Account{Nonce: 3, Balance: big.NewInt(42)}); err != nil {
		t.Fatalf("put account: %v", err)
	}
	acc, err = mgr.GetAccount(addr)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if acc.Nonce != 3 || acc.Balance.Int64() != 42 {
		t.Fatalf("unexpected account: %+v", acc)
	}
	if err := mgr.PutAccount(addr, &types.Account{Balance: big.NewInt(-1)}); err == nil {
		t.Fatalf("expected negative balance to be rejected")
	}
}

func TestHoldingsDeleteWhenEmpty(t *testing.T) {
	mgr, db := newTestManager(t)
	asset := [32]byte{0xAA}
	owner := [20]byte{0x01}

	if err := mgr.HoldingPut(asset, owner, 1); err != nil {
		t.Fatalf("put holding: %v", err)
	}
	if got, err := mgr.HoldingGet(asset, owner); err != nil || got != 1 {
		t.Fatalf("unexpected holding %d (%v)", got, err)
	}
	if err := mgr.HoldingPut(asset, owner, 0); err != nil {
		t.Fatalf("clear holding: %v", err)
	}
	if db.Len() != 0 {
		t.Fatalf("expected empty holding to be deleted, store has %d keys", db.Len())
	}
}

func TestAssetPutGet(t *testing.T) {
	mgr, _ := newTestManager(t)
	asset := &token.Asset{
		ID:         [32]byte{0x01},
		Issuer:     [20]byte{0x02},
		Name:       "Sunset",
		Symbol:     "SUN",
		URI:        "ipfs://sunset",
		Collection: [32]byte{0x03},
		Supply:     1,
		CreatedAt:  1_700_000_000,
	}
	if err := mgr.AssetPut(asset); err != nil {
		t.Fatalf("put asset: %v", err)
	}
	stored, ok, err := mgr.AssetGet(asset.ID)
	if err != nil || !ok {
		t.Fatalf("get asset: ok=%v err=%v", ok, err)
	}
	if *stored != *asset {
		t.Fatalf("asset mismatch: %+v != %+v", stored, asset)
	}
	if _, ok, err := mgr.AssetGet([32]byte{0xFF}); err != nil || ok {
		t.Fatalf("expected missing asset, ok=%v err=%v", ok, err)
	}
}

func TestAuctionLifecycleKeys(t *testing.T) {
	mgr, _ := newTestManager(t)
	rec := &auction.Auction{
		Asset:         [32]byte{0x10},
		Seller:        [20]byte{0x11},
		Authority:     [20]byte{0x12},
		Bump:          254,
		StartTime:     100,
		StartingPrice: 50,
		Bids: []auction.Bid{
			{Bidder: [20]byte{0xA1}, Amount: 60},
			{Bidder: [20]byte{0xB1}, Amount: 80},
			{Bidder: [20]byte{0xA1}, Amount: 70},
		},
		Deposit:   big.NewInt(9),
		CreatedAt: 99,
	}
	if err := mgr.AuctionPut(rec); err != nil {
		t.Fatalf("put auction: %v", err)
	}
	stored, ok, err := mgr.AuctionGet(rec.Asset)
	if err != nil || !ok {
		t.Fatalf("get auction: ok=%v err=%v", ok, err)
	}
	if len(stored.Bids) != 3 || stored.Bids[2] != rec.Bids[2] {
		t.Fatalf("bid order not preserved: %+v", stored.Bids)
	}
	if stored.Seller != rec.Seller || stored.Bump != rec.Bump || stored.StartTime != 100 || stored.Deposit.Int64() != 9 {
		t.Fatalf("record mismatch: %+v", stored)
	}

	if closed, err := mgr.AuctionClosed(rec.Asset); err != nil || closed {
		t.Fatalf("record must not be closed yet (closed=%v err=%v)", closed, err)
	}
	if err := mgr.AuctionClose(rec.Asset); err != nil {
		t.Fatalf("close auction: %v", err)
	}
	if _, ok, err := mgr.AuctionGet(rec.Asset); err != nil || ok {
		t.Fatalf("expected record to be deleted, ok=%v err=%v", ok, err)
	}
	if closed, err := mgr.AuctionClosed(rec.Asset); err != nil || !closed {
		t.Fatalf("expected tombstone, closed=%v err=%v", closed, err)
	}
}

func TestOverlayIsolation(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()
	addr := [20]byte{0x01}

	overlay := storage.NewOverlay(db)
	staged := NewManager(overlay)
	if err := staged.PutAccount(addr, &types.Account{Balance: big.NewInt(5)}); err != nil {
		t.Fatalf("put account: %v", err)
	}
	base := NewManager(db)
	acc, err := base.GetAccount(addr)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if acc.Balance.Sign() != 0 {
		t.Fatalf("staged write leaked into base store")
	}
	overlay.Discard()

	acc, err = base.GetAccount(addr)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if acc.Balance.Sign() != 0 {
		t.Fatalf("discarded write became visible")
	}
}

func TestKVPutGet(t *testing.T) {
	mgr, _ := newTestManager(t)
	if err := mgr.KVPut([]byte("chain-id"), uint64(7)); err != nil {
		t.Fatalf("kv put: %v", err)
	}
	var got uint64
	ok, err := mgr.KVGet([]byte("chain-id"), &got)
	if err != nil || !ok || got != 7 {
		t.Fatalf("kv get: ok=%v err=%v value=%d", ok, err, got)
	}
	if _, err := mgr.KVGet(nil, &got); err == nil {
		t.Fatalf("expected empty key to be rejected")
	}
}

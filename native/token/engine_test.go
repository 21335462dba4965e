package token

import (
	"bytes"
	"errors"
	"testing"

	"auctionchain/core/events"
	"auctionchain/crypto"
	"auctionchain/native/common"
)

type holdingKey struct {
	asset [32]byte
	owner [20]byte
}

type mockState struct {
	assets   map[[32]byte]*Asset
	holdings map[holdingKey]uint64
}

func newMockState() *mockState {
	return &mockState{
		assets:   make(map[[32]byte]*Asset),
		holdings: make(map[holdingKey]uint64),
	}
}

func (m *mockState) AssetGet(id [32]byte) (*Asset, bool, error) {
	a, ok := m.assets[id]
	if !ok {
		return nil, false, nil
	}
	return a.Clone(), true, nil
}

func (m *mockState) AssetPut(a *Asset) error {
	m.assets[a.ID] = a.Clone()
	return nil
}

func (m *mockState) HoldingGet(asset [32]byte, owner [20]byte) (uint64, error) {
	return m.holdings[holdingKey{asset, owner}], nil
}

func (m *mockState) HoldingPut(asset [32]byte, owner [20]byte, amount uint64) error {
	if amount == 0 {
		delete(m.holdings, holdingKey{asset, owner})
		return nil
	}
	m.holdings[holdingKey{asset, owner}] = amount
	return nil
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func newTestEngine(t *testing.T) (*Engine, *mockState, *events.Buffer) {
	t.Helper()
	st := newMockState()
	buf := events.NewBuffer()
	e := NewEngine()
	e.SetState(st)
	e.SetEmitter(buf)
	e.SetNowFunc(func() int64 { return 1_700_000_000 })
	return e, st, buf
}

func TestIssueMintsSingleUnit(t *testing.T) {
	e, st, buf := newTestEngine(t)
	issuer := newTestAddress(0x01)

	asset, err := e.Issue(issuer, 7, Metadata{Name: " Sunset ", Symbol: "sun", URI: "ipfs://sunset"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if asset.ID != AssetID(issuer, 7) {
		t.Fatalf("unexpected asset id %x", asset.ID)
	}
	if asset.Name != "Sunset" || asset.Symbol != "SUN" {
		t.Fatalf("metadata not sanitized: %+v", asset)
	}
	if asset.Supply != 1 || asset.CreatedAt != 1_700_000_000 {
		t.Fatalf("unexpected supply or timestamp: %+v", asset)
	}
	if got := st.holdings[holdingKey{asset.ID, issuer}]; got != 1 {
		t.Fatalf("expected issuer to hold one unit, got %d", got)
	}
	evts := buf.Events()
	if len(evts) != 1 || evts[0].Type != events.TypeAssetIssued {
		t.Fatalf("expected asset issued event, got %+v", evts)
	}

	if _, err := e.Issue(issuer, 7, Metadata{Name: "Again"}); !errors.Is(err, ErrAssetExists) {
		t.Fatalf("expected ErrAssetExists, got %v", err)
	}
}

func TestIssueValidatesMetadata(t *testing.T) {
	e, _, _ := newTestEngine(t)
	issuer := newTestAddress(0x01)

	cases := []Metadata{
		{Name: ""},
		{Name: string(bytes.Repeat([]byte{'n'}, MaxNameLength+1))},
		{Name: "ok", Symbol: "TOOLONGSYMBOL"},
		{Name: "ok", URI: string(bytes.Repeat([]byte{'u'}, MaxURILength+1))},
		{Name: "ok", Collection: []byte{0x01}},
	}
	for i, meta := range cases {
		if _, err := e.Issue(issuer, uint64(i), meta); !errors.Is(err, ErrInvalidMetadata) {
			t.Fatalf("case %d: expected ErrInvalidMetadata, got %v", i, err)
		}
	}
}

func TestIssueWithCollection(t *testing.T) {
	e, _, _ := newTestEngine(t)
	issuer := newTestAddress(0x01)

	missing := AssetID(issuer, 99)
	if _, err := e.Issue(issuer, 1, Metadata{Name: "child", Collection: missing[:]}); !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}

	parent, err := e.Issue(issuer, 2, Metadata{Name: "collection"})
	if err != nil {
		t.Fatalf("issue collection: %v", err)
	}
	child, err := e.Issue(issuer, 3, Metadata{Name: "child", Collection: parent.ID[:]})
	if err != nil {
		t.Fatalf("issue child: %v", err)
	}
	if !child.HasCollection() || child.Collection != parent.ID {
		t.Fatalf("collection not recorded: %+v", child)
	}
}

func TestTransferRequiresAuthorization(t *testing.T) {
	e, st, buf := newTestEngine(t)
	owner := newTestAddress(0x01)
	other := newTestAddress(0x02)
	asset, err := e.Issue(owner, 0, Metadata{Name: "piece"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	buf.Reset()

	if err := e.Transfer(asset.ID, owner, other, 1, common.NewSignerSet(other)); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if len(buf.Events()) != 0 {
		t.Fatalf("failed transfer must not emit events")
	}
	if err := e.Transfer(asset.ID, owner, other, 2, common.NewSignerSet(owner)); !errors.Is(err, ErrInsufficientHolding) {
		t.Fatalf("expected ErrInsufficientHolding, got %v", err)
	}
	if err := e.Transfer(asset.ID, owner, other, 0, common.NewSignerSet(owner)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := e.Transfer([32]byte{0x42}, owner, other, 1, common.NewSignerSet(owner)); !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}

	if err := e.Transfer(asset.ID, owner, other, 1, common.NewSignerSet(owner)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if st.holdings[holdingKey{asset.ID, owner}] != 0 || st.holdings[holdingKey{asset.ID, other}] != 1 {
		t.Fatalf("unexpected holdings after transfer: %+v", st.holdings)
	}
	evts := buf.Events()
	if len(evts) != 1 || evts[0].Type != events.TypeAssetTransferred {
		t.Fatalf("expected transfer event, got %+v", evts)
	}
}

func TestTransferFromProgramAccount(t *testing.T) {
	e, st, _ := newTestEngine(t)
	owner := newTestAddress(0x01)
	asset, err := e.Issue(owner, 0, Metadata{Name: "piece"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	program := newTestAddress(0xEE)
	vault, bump, err := crypto.FindProgramAddress(program, []byte("vault"), asset.ID[:])
	if err != nil {
		t.Fatalf("derive vault: %v", err)
	}
	if err := e.Transfer(asset.ID, owner, vault, 1, common.NewSignerSet(owner)); err != nil {
		t.Fatalf("fund vault: %v", err)
	}

	if err := e.Transfer(asset.ID, vault, owner, 1, common.NewSignerSet(owner)); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for signer debit of vault, got %v", err)
	}
	wrong := common.ProgramSigner{Program: program, Seeds: [][]byte{[]byte("vault"), asset.ID[:], {bump ^ 0x01}}}
	if err := e.Transfer(asset.ID, vault, owner, 1, wrong); !errors.Is(err, common.ErrSeedsMismatch) {
		t.Fatalf("expected ErrSeedsMismatch, got %v", err)
	}
	if st.holdings[holdingKey{asset.ID, vault}] != 1 {
		t.Fatalf("vault must keep custody after rejected withdrawals")
	}

	signer := common.ProgramSigner{Program: program, Seeds: [][]byte{[]byte("vault"), asset.ID[:], {bump}}}
	if err := e.Transfer(asset.ID, vault, owner, 1, signer); err != nil {
		t.Fatalf("release vault: %v", err)
	}
	if st.holdings[holdingKey{asset.ID, owner}] != 1 {
		t.Fatalf("expected owner to regain custody")
	}
}

package bank

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"auctionchain/core/events"
	"auctionchain/core/types"
	"auctionchain/native/common"
)

type mockState struct {
	accounts map[[20]byte]*types.Account
}

func (m *mockState) GetAccount(addr [20]byte) (*types.Account, error) {
	return m.accounts[addr].Clone(), nil
}

func (m *mockState) PutAccount(addr [20]byte, acc *types.Account) error {
	m.accounts[addr] = acc.Clone()
	return nil
}

func newTestEngine(balances map[[20]byte]int64) (*Engine, *mockState, *events.Buffer) {
	st := &mockState{accounts: make(map[[20]byte]*types.Account)}
	for addr, bal := range balances {
		st.accounts[addr] = &types.Account{Balance: big.NewInt(bal)}
	}
	buf := events.NewBuffer()
	e := NewEngine()
	e.SetState(st)
	e.SetEmitter(buf)
	return e, st, buf
}

func TestTransferMovesBalance(t *testing.T) {
	alice, bob := [20]byte{0x01}, [20]byte{0x02}
	e, _, buf := newTestEngine(map[[20]byte]int64{alice: 100})

	require.NoError(t, e.Transfer(alice, bob, big.NewInt(40), common.NewSignerSet(alice), "payment"))

	bal, err := e.Balance(alice)
	require.NoError(t, err)
	require.Equal(t, int64(60), bal.Int64())
	bal, err = e.Balance(bob)
	require.NoError(t, err)
	require.Equal(t, int64(40), bal.Int64())

	evts := buf.Events()
	require.Len(t, evts, 1)
	require.Equal(t, events.TypePayment, evts[0].Type)
	require.Equal(t, "payment", evts[0].Attributes["purpose"])
}

func TestTransferRejections(t *testing.T) {
	alice, bob := [20]byte{0x01}, [20]byte{0x02}
	e, st, buf := newTestEngine(map[[20]byte]int64{alice: 10})

	require.ErrorIs(t, e.Transfer(alice, bob, big.NewInt(5), common.NewSignerSet(bob), ""), common.ErrUnauthorized)
	require.ErrorIs(t, e.Transfer(alice, bob, big.NewInt(11), common.NewSignerSet(alice), ""), ErrInsufficientBalance)
	require.ErrorIs(t, e.Transfer(alice, bob, big.NewInt(-1), common.NewSignerSet(alice), ""), ErrInvalidAmount)
	require.ErrorIs(t, e.Transfer(alice, bob, big.NewInt(1), nil, ""), common.ErrUnauthorized)

	require.Equal(t, int64(10), st.accounts[alice].Balance.Int64())
	require.Nil(t, st.accounts[bob])
	require.Empty(t, buf.Events())
}

func TestTransferOverflow(t *testing.T) {
	alice, bob := [20]byte{0x01}, [20]byte{0x02}
	e, st, _ := newTestEngine(map[[20]byte]int64{alice: 10})
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	st.accounts[bob] = &types.Account{Balance: max}

	require.ErrorIs(t, e.Transfer(alice, bob, big.NewInt(1), common.NewSignerSet(alice), ""), ErrBalanceOverflow)
	require.Equal(t, int64(10), st.accounts[alice].Balance.Int64())
}

func TestTransferZeroIsNoop(t *testing.T) {
	alice, bob := [20]byte{0x01}, [20]byte{0x02}
	e, st, buf := newTestEngine(nil)

	require.NoError(t, e.Transfer(alice, bob, big.NewInt(0), nil, ""))
	require.Empty(t, st.accounts)
	require.Empty(t, buf.Events())
}

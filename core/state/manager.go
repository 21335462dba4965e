package state

import (
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"auctionchain/core/types"
	"auctionchain/storage"
)

// Manager reads and writes typed chain state on top of a key-value store.
// Keys are keccak256 digests of a namespace prefix and the record identity;
// values are rlp encoded.
type Manager struct {
	kv storage.KeyValueStore
}

// NewManager creates a state manager operating on the provided store. Pass a
// storage.Overlay to stage a transaction's writes.
func NewManager(kv storage.KeyValueStore) *Manager {
	return &Manager{kv: kv}
}

var (
	accountPrefix = []byte("account:")
	kvPrefix      = []byte("kv:")
)

func prefixedKey(prefix []byte, parts ...[]byte) []byte {
	all := make([][]byte, 0, len(parts)+1)
	all = append(all, prefix)
	all = append(all, parts...)
	return ethcrypto.Keccak256(all...)
}

func (m *Manager) get(key []byte, out interface{}) (bool, error) {
	data, err := m.kv.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) put(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.kv.Put(key, encoded)
}

type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

// GetAccount returns the account stored under addr. Unknown addresses yield a
// zero account.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	var stored storedAccount
	ok, err := m.get(prefixedKey(accountPrefix, addr[:]), &stored)
	if err != nil {
		return nil, fmt.Errorf("state: load account: %w", err)
	}
	if !ok || stored.Balance == nil {
		stored.Balance = big.NewInt(0)
	}
	return &types.Account{Nonce: stored.Nonce, Balance: stored.Balance}, nil
}

// PutAccount persists account under addr.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	balance := account.Balance
	if balance == nil {
		balance = big.NewInt(0)
	}
	if balance.Sign() < 0 {
		return fmt.Errorf("state: negative balance")
	}
	return m.put(prefixedKey(accountPrefix, addr[:]), &storedAccount{Nonce: account.Nonce, Balance: balance})
}

// KVPut stores an arbitrary rlp-encodable value under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return m.put(prefixedKey(kvPrefix, key), value)
}

// KVGet decodes the value stored under key into out. The boolean reports
// whether the key existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	return m.get(prefixedKey(kvPrefix, key), out)
}

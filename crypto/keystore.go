package crypto

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

var ErrKeystoreExists = errors.New("crypto: keystore file already exists")

// ScryptN and ScryptP are the key derivation costs for new keystores. Tests
// lower them.
var (
	ScryptN = keystore.StandardScryptN
	ScryptP = keystore.StandardScryptP
)

// SaveToKeystore encrypts key into a v3 keystore file at path. Existing files
// are never replaced. The parent directory is created 0700 and the file is
// written 0600 through a rename so a partial file is never observed.
func SaveToKeystore(path string, key *PrivateKey, passphrase string) error {
	if key == nil || key.PrivateKey == nil {
		return errors.New("crypto: nil private key")
	}
	if strings.TrimSpace(path) == "" {
		return errors.New("crypto: empty keystore path")
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrKeystoreExists, path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return err
	}
	addr := key.PubKey().Address().Array()
	encrypted, err := keystore.EncryptKey(&keystore.Key{
		Id:         id,
		Address:    common.BytesToAddress(addr[:]),
		PrivateKey: key.PrivateKey,
	}, passphrase, ScryptN, ScryptP)
	if err != nil {
		return fmt.Errorf("crypto: encrypt keystore: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".keystore-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(encrypted); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadFromKeystore decrypts a v3 keystore file.
func LoadFromKeystore(path, passphrase string) (*PrivateKey, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("crypto: empty keystore path")
	}
	keyJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	decrypted, err := keystore.DecryptKey(keyJSON, passphrase)
	if err != nil {
		return nil, fmt.Errorf("crypto: decrypt keystore: %w", err)
	}
	return &PrivateKey{PrivateKey: decrypted.PrivateKey}, nil
}

// KeystoreAddress reads the plaintext address recorded in a keystore file
// without decrypting the key material.
func KeystoreAddress(path string) ([20]byte, error) {
	var out [20]byte
	raw, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	var header struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		return out, fmt.Errorf("crypto: parse keystore %s: %w", path, err)
	}
	decoded, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(header.Address), "0x"))
	if err != nil {
		return out, fmt.Errorf("crypto: keystore address: %w", err)
	}
	if len(decoded) != len(out) {
		return out, fmt.Errorf("crypto: keystore address must be 20 bytes, got %d", len(decoded))
	}
	copy(out[:], decoded)
	return out, nil
}

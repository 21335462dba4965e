package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"auctionchain/cmd/internal/passphrase"
	"auctionchain/crypto"
)

const (
	keystorePassphraseEnv = "AUCTION_KEYSTORE_PASSPHRASE"
	cosignerPassphraseEnv = "AUCTION_COSIGNER_PASSPHRASE"
)

var (
	signerPassphrase   = passphrase.NewSource(keystorePassphraseEnv, "keystore")
	cosignerPassphrase = passphrase.NewSource(cosignerPassphraseEnv, "co-signer keystore")
)

// loadKey decrypts a keystore. Tests replace it to avoid scrypt.
var loadKey = func(path string, source *passphrase.Source) (*crypto.PrivateKey, error) {
	pass, err := source.Get()
	if err != nil {
		return nil, err
	}
	key, err := crypto.LoadFromKeystore(path, pass)
	if err != nil {
		return nil, fmt.Errorf("load keystore %s: %w", path, err)
	}
	return key, nil
}

// saveKey encrypts key into a new keystore file.
var saveKey = func(path string, key *crypto.PrivateKey, source *passphrase.Source) error {
	pass, err := source.Get()
	if err != nil {
		return err
	}
	return crypto.SaveToKeystore(path, key, pass)
}

func runKeygen(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("out", "", "path of the keystore file to create")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(*out) == "" {
		return printError(stderr, "--out is required")
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return printError(stderr, fmt.Sprintf("failed to generate key: %v", err))
	}
	if err := saveKey(*out, key, signerPassphrase); err != nil {
		return printError(stderr, fmt.Sprintf("failed to save keystore: %v", err))
	}
	fmt.Fprintf(stdout, "Address: %s\nKeystore: %s\n", key.PubKey().Address().String(), *out)
	return 0
}

func runAddress(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("address", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("key", "", "keystore file")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(*path) == "" {
		return printError(stderr, "--key is required")
	}
	addr, err := crypto.KeystoreAddress(*path)
	if err != nil {
		return printError(stderr, err.Error())
	}
	fmt.Fprintln(stdout, crypto.FormatAddress(addr))
	return 0
}

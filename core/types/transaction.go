package types

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// TxType defines the purpose of a transaction.
type TxType byte

const (
	TxTypeTransfer      TxType = 0x01 // Native currency transfer
	TxTypeIssueAsset    TxType = 0x02 // Mint a unique asset to the sender
	TxTypeTransferAsset TxType = 0x03 // Move a held asset to another owner
	TxTypeAuctionOpen   TxType = 0x10
	TxTypeAuctionBid    TxType = 0x11
	TxTypeAuctionReject TxType = 0x12
	TxTypeAuctionAccept TxType = 0x13 // Requires the winning bidder's co-signature
	TxTypeAuctionCancel TxType = 0x14
)

var txTypeNames = map[TxType]string{
	TxTypeTransfer:      "transfer",
	TxTypeIssueAsset:    "issue_asset",
	TxTypeTransferAsset: "transfer_asset",
	TxTypeAuctionOpen:   "auction_open",
	TxTypeAuctionBid:    "auction_bid",
	TxTypeAuctionReject: "auction_reject",
	TxTypeAuctionAccept: "auction_accept",
	TxTypeAuctionCancel: "auction_cancel",
}

// String returns the stable label used in logs and metrics.
func (t TxType) String() string {
	if name, ok := txTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(0x%02x)", byte(t))
}

// Valid reports whether the type is handled by the node.
func (t TxType) Valid() bool {
	_, ok := txTypeNames[t]
	return ok
}

// Module returns the native module responsible for the transaction type.
func (t TxType) Module() string {
	switch t {
	case TxTypeTransfer:
		return "bank"
	case TxTypeIssueAsset, TxTypeTransferAsset:
		return "token"
	case TxTypeAuctionOpen, TxTypeAuctionBid, TxTypeAuctionReject, TxTypeAuctionAccept, TxTypeAuctionCancel:
		return "auction"
	default:
		return ""
	}
}

var (
	ErrMissingSignature   = errors.New("tx: missing signature")
	ErrDuplicateCoSigner  = errors.New("tx: duplicate co-signer")
	ErrMalformedSignature = errors.New("tx: malformed signature")
)

// Transaction is a signed request to run one native operation. The sender
// signs the body; additional parties that must authorize the operation (for
// example a winning bidder paying at settlement) add co-signatures over the
// same body hash.
type Transaction struct {
	ChainID      uint64          `json:"chainId"`
	Type         TxType          `json:"type"`
	Nonce        uint64          `json:"nonce"`
	Payload      hexutil.Bytes   `json:"payload"`
	Signature    hexutil.Bytes   `json:"signature"`
	CoSignatures []hexutil.Bytes `json:"coSignatures,omitempty"`

	from []byte
}

type txBody struct {
	ChainID uint64
	Type    uint8
	Nonce   uint64
	Payload []byte
}

// Hash returns the keccak256 digest of the rlp-encoded unsigned body. Every
// signature on the transaction covers this digest.
func (tx *Transaction) Hash() ([]byte, error) {
	encoded, err := rlp.EncodeToBytes(&txBody{
		ChainID: tx.ChainID,
		Type:    uint8(tx.Type),
		Nonce:   tx.Nonce,
		Payload: tx.Payload,
	})
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256(encoded), nil
}

// Sign sets the sender signature.
func (tx *Transaction) Sign(privKey *ecdsa.PrivateKey) error {
	hash, err := tx.Hash()
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(hash, privKey)
	if err != nil {
		return err
	}
	tx.Signature = sig
	tx.from = nil
	return nil
}

// CoSign appends a co-signature from an additional authorizing party.
func (tx *Transaction) CoSign(privKey *ecdsa.PrivateKey) error {
	hash, err := tx.Hash()
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(hash, privKey)
	if err != nil {
		return err
	}
	tx.CoSignatures = append(tx.CoSignatures, sig)
	return nil
}

// From recovers the sender address from the primary signature.
func (tx *Transaction) From() ([20]byte, error) {
	var out [20]byte
	if tx.from != nil {
		copy(out[:], tx.from)
		return out, nil
	}
	if len(tx.Signature) == 0 {
		return out, ErrMissingSignature
	}
	hash, err := tx.Hash()
	if err != nil {
		return out, err
	}
	addr, err := recoverAddress(hash, tx.Signature)
	if err != nil {
		return out, err
	}
	tx.from = addr[:]
	return addr, nil
}

// CoSigners recovers every co-signer address in signature order. A party may
// co-sign only once and may not duplicate the sender.
func (tx *Transaction) CoSigners() ([][20]byte, error) {
	if len(tx.CoSignatures) == 0 {
		return nil, nil
	}
	sender, err := tx.From()
	if err != nil {
		return nil, err
	}
	hash, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	seen := map[[20]byte]struct{}{sender: {}}
	out := make([][20]byte, 0, len(tx.CoSignatures))
	for i, sig := range tx.CoSignatures {
		addr, err := recoverAddress(hash, sig)
		if err != nil {
			return nil, fmt.Errorf("co-signature %d: %w", i, err)
		}
		if _, dup := seen[addr]; dup {
			return nil, fmt.Errorf("%w: %x", ErrDuplicateCoSigner, addr)
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out, nil
}

func recoverAddress(hash, sig []byte) ([20]byte, error) {
	var out [20]byte
	if len(sig) != crypto.SignatureLength {
		return out, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedSignature, crypto.SignatureLength, len(sig))
	}
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	copy(out[:], crypto.PubkeyToAddress(*pub).Bytes())
	return out, nil
}

package types

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestTransactionSignersRecovered(t *testing.T) {
	seller, err := crypto.GenerateKey()
	require.NoError(t, err)
	winner, err := crypto.GenerateKey()
	require.NoError(t, err)

	payload, err := EncodePayload(&AuctionAcceptPayload{Winner: [20]byte{0x01}})
	require.NoError(t, err)
	tx := &Transaction{ChainID: 7, Type: TxTypeAuctionAccept, Nonce: 3, Payload: payload}
	require.NoError(t, tx.Sign(seller))
	require.NoError(t, tx.CoSign(winner))

	from, err := tx.From()
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(seller.PublicKey).Bytes(), from[:])

	cosigners, err := tx.CoSigners()
	require.NoError(t, err)
	require.Len(t, cosigners, 1)
	require.Equal(t, crypto.PubkeyToAddress(winner.PublicKey).Bytes(), cosigners[0][:])

	var decoded AuctionAcceptPayload
	require.NoError(t, DecodePayload(tx.Payload, &decoded))
	require.Equal(t, [20]byte{0x01}, decoded.Winner)
}

func TestTransactionRejectsSenderAsCoSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	tx := &Transaction{ChainID: 7, Type: TxTypeAuctionAccept, Payload: []byte{0xc0}}
	require.NoError(t, tx.Sign(key))
	require.NoError(t, tx.CoSign(key))

	_, err = tx.CoSigners()
	require.ErrorIs(t, err, ErrDuplicateCoSigner)
}

func TestTransactionTamperingChangesSender(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	tx := &Transaction{ChainID: 7, Type: TxTypeAuctionBid, Nonce: 1, Payload: []byte{0xc0}}
	require.NoError(t, tx.Sign(key))
	original, err := tx.From()
	require.NoError(t, err)

	tampered := &Transaction{ChainID: tx.ChainID, Type: tx.Type, Nonce: 2, Payload: tx.Payload, Signature: tx.Signature}
	recovered, err := tampered.From()
	if err == nil {
		require.NotEqual(t, original, recovered)
	}
}

func TestTxTypeModules(t *testing.T) {
	require.Equal(t, "auction", TxTypeAuctionCancel.Module())
	require.Equal(t, "token", TxTypeIssueAsset.Module())
	require.Equal(t, "bank", TxTypeTransfer.Module())
	require.False(t, TxType(0x7f).Valid())
	require.Equal(t, "auction_accept", TxTypeAuctionAccept.String())
}

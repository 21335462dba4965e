package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"auctionchain/cmd/internal/passphrase"
	"auctionchain/core/types"
	"auctionchain/crypto"
	"auctionchain/native/token"
)

type rpcStub struct {
	calls   []string
	sent    []*types.Transaction
	chainID uint64
	nonce   uint64
	results map[string]string
}

func (s *rpcStub) call(method string, params []interface{}, requireAuth bool) (json.RawMessage, error) {
	s.calls = append(s.calls, method)
	switch method {
	case "program_describe":
		return json.RawMessage(fmt.Sprintf(`{"chainId":%d}`, s.chainID)), nil
	case "bank_getBalance":
		return json.RawMessage(fmt.Sprintf(`{"address":%q,"balance":"1500000000","nonce":%d}`, params[0], s.nonce)), nil
	case "auction_sendTransaction":
		if !requireAuth {
			return nil, fmt.Errorf("send without auth")
		}
		encoded, err := json.Marshal(params[0])
		if err != nil {
			return nil, err
		}
		var tx types.Transaction
		if err := json.Unmarshal(encoded, &tx); err != nil {
			return nil, err
		}
		s.sent = append(s.sent, &tx)
		return json.RawMessage(`{"txHash":"0xabc","type":"` + tx.Type.String() + `","nonce":` + fmt.Sprint(tx.Nonce) + `,"events":[{"type":"auction.settled","attributes":{"winner":"w"}}]}`), nil
	}
	if res, ok := s.results[method]; ok {
		return json.RawMessage(res), nil
	}
	return nil, &rpcError{Code: -32601, Message: "method not found"}
}

func withStubs(t *testing.T, keys map[string]*crypto.PrivateKey) *rpcStub {
	t.Helper()
	stub := &rpcStub{chainID: 7, nonce: 3, results: map[string]string{}}
	origCall, origLoad := rpcCall, loadKey
	rpcCall = stub.call
	loadKey = func(path string, _ *passphrase.Source) (*crypto.PrivateKey, error) {
		key, ok := keys[path]
		if !ok {
			return nil, fmt.Errorf("no keystore at %s", path)
		}
		return key, nil
	}
	t.Cleanup(func() {
		rpcCall = origCall
		loadKey = origLoad
	})
	return stub
}

func newKey(t *testing.T) *crypto.PrivateKey {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	return key
}

func assetHex(b byte) string {
	var id [32]byte
	id[0] = b
	return token.FormatAssetID(id)
}

func TestAcceptCoSignsWithWinnerKey(t *testing.T) {
	seller, winner := newKey(t), newKey(t)
	stub := withStubs(t, map[string]*crypto.PrivateKey{"seller.json": seller, "winner.json": winner})
	winnerAddr := crypto.FormatAddress(winner.PubKey().Address().Array())

	var stdout, stderr bytes.Buffer
	code := run([]string{"accept", "--key", "seller.json", "--asset", assetHex(1), "--winner", winnerAddr, "--winner-key", "winner.json"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Contains(t, stdout.String(), "auction.settled winner=w")

	require.Len(t, stub.sent, 1)
	tx := stub.sent[0]
	require.Equal(t, types.TxTypeAuctionAccept, tx.Type)
	require.Equal(t, uint64(7), tx.ChainID)
	require.Equal(t, uint64(3), tx.Nonce)
	from, err := tx.From()
	require.NoError(t, err)
	require.Equal(t, seller.PubKey().Address().Array(), from)
	cosigners, err := tx.CoSigners()
	require.NoError(t, err)
	require.Equal(t, [][20]byte{winner.PubKey().Address().Array()}, cosigners)

	var payload types.AuctionAcceptPayload
	require.NoError(t, types.DecodePayload(tx.Payload, &payload))
	require.Equal(t, winner.PubKey().Address().Array(), payload.Winner)
}

func TestAcceptRejectsMismatchedWinnerKey(t *testing.T) {
	seller, winner, other := newKey(t), newKey(t), newKey(t)
	stub := withStubs(t, map[string]*crypto.PrivateKey{"seller.json": seller, "other.json": other})

	var stdout, stderr bytes.Buffer
	code := run([]string{"accept", "--key", "seller.json", "--asset", assetHex(1),
		"--winner", crypto.FormatAddress(winner.PubKey().Address().Array()), "--winner-key", "other.json"}, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "does not match")
	require.Empty(t, stub.sent)
}

func TestBidUsesOverridesAndBaseUnits(t *testing.T) {
	bidder := newKey(t)
	stub := withStubs(t, map[string]*crypto.PrivateKey{"bidder.json": bidder})

	var stdout, stderr bytes.Buffer
	code := run([]string{"bid", "--key", "bidder.json", "--asset", "0x" + assetHex(2), "--amount", "0.00000008", "--nonce", "11", "--chain-id", "99"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.NotContains(t, stub.calls, "program_describe")
	require.NotContains(t, stub.calls, "bank_getBalance")

	tx := stub.sent[0]
	require.Equal(t, uint64(99), tx.ChainID)
	require.Equal(t, uint64(11), tx.Nonce)
	var payload types.AuctionBidPayload
	require.NoError(t, types.DecodePayload(tx.Payload, &payload))
	require.Equal(t, uint64(80), payload.Amount)
	require.Equal(t, byte(2), payload.Asset[0])
}

func TestOpenParsesRelativeStart(t *testing.T) {
	seller := newKey(t)
	stub := withStubs(t, map[string]*crypto.PrivateKey{"seller.json": seller})
	origNow := nowFn
	nowFn = func() time.Time { return time.Unix(1_000, 0) }
	t.Cleanup(func() { nowFn = origNow })

	var stdout, stderr bytes.Buffer
	code := run([]string{"open", "--key", "seller.json", "--asset", assetHex(3), "--start", "+90s", "--price", "1"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var payload types.AuctionOpenPayload
	require.NoError(t, types.DecodePayload(stub.sent[0].Payload, &payload))
	require.Equal(t, uint64(1_090), payload.StartTime)
	require.Equal(t, uint64(1_000_000_000), payload.StartingPrice)
}

func TestParseStartTime(t *testing.T) {
	got, err := parseStartTime("100")
	require.NoError(t, err)
	require.Equal(t, uint64(100), got)

	got, err = parseStartTime("2024-01-02T03:04:05Z")
	require.NoError(t, err)
	require.Equal(t, uint64(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Unix()), got)

	_, err = parseStartTime("tomorrow")
	require.Error(t, err)
	_, err = parseStartTime("")
	require.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	v, err := parseAmount("1.5")
	require.NoError(t, err)
	require.Equal(t, "1500000000", v.String())

	_, err = parseAmount("0.0000000001")
	require.Error(t, err)
	_, err = parseAmount("-1")
	require.Error(t, err)
	_, err = parseUintAmount("100000000000")
	require.Error(t, err)

	require.Equal(t, "1.5", formatAmount(v))
	require.Equal(t, "0.00000008", formatUintAmount(80))
}

func TestGetPrintsAuction(t *testing.T) {
	stub := withStubs(t, nil)
	stub.results["auction_get"] = `{"asset":"aa","phase":"open","seller":"s","authority":"pda","startTime":100,"startingPrice":0,"live":true,"deposit":"0","bids":[{"bidder":"b","amount":80}]}`

	var stdout, stderr bytes.Buffer
	code := run([]string{"get", "--asset", assetHex(4)}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	out := stdout.String()
	require.Contains(t, out, "Phase: open")
	require.Contains(t, out, "Authority: pda")
	require.Contains(t, out, "1. b 0.00000008")
}

func TestBalanceFormatsAmount(t *testing.T) {
	withStubs(t, nil)
	addr := crypto.FormatAddress(newKey(t).PubKey().Address().Array())

	var stdout, stderr bytes.Buffer
	code := run([]string{"balance", "--address", addr}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Contains(t, stdout.String(), "Balance: 1.5")
	require.Contains(t, stdout.String(), "Nonce: 3")
}

func TestUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, run([]string{"explode"}, &stdout, &stderr))
	require.Contains(t, stderr.String(), "Unknown command")
}

func TestApplyGlobalFlags(t *testing.T) {
	orig := rpcEndpoint
	t.Cleanup(func() { rpcEndpoint = orig })

	rest, err := applyGlobalFlags([]string{"--rpc", "http://node:1", "get", "--asset", "x"})
	require.NoError(t, err)
	require.Equal(t, "http://node:1", rpcEndpoint)
	require.Equal(t, []string{"get", "--asset", "x"}, rest)

	rest, err = applyGlobalFlags([]string{"describe", "--rpc=http://node:2"})
	require.NoError(t, err)
	require.Equal(t, "http://node:2", rpcEndpoint)
	require.Equal(t, []string{"describe"}, rest)

	_, err = applyGlobalFlags([]string{"--rpc"})
	require.Error(t, err)
}

func TestCallRPCRetriesThrottledRequests(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"ok":true}}`))
	}))
	defer srv.Close()

	origEndpoint, origToken := rpcEndpoint, rpcAuthToken
	rpcEndpoint, rpcAuthToken = srv.URL, "secret"
	t.Cleanup(func() { rpcEndpoint, rpcAuthToken = origEndpoint, origToken })

	raw, err := callRPC("auction_sendTransaction", nil, true)
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(raw))
	require.Equal(t, int32(2), hits.Load())
}

func TestCallRPCDoesNotRetryApplicationErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32103,"message":"auction: bids placed"}}`))
	}))
	defer srv.Close()

	origEndpoint := rpcEndpoint
	rpcEndpoint = srv.URL
	t.Cleanup(func() { rpcEndpoint = origEndpoint })

	_, err := callRPC("auction_get", []interface{}{"aa"}, false)
	var rpcErr *rpcError
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, -32103, rpcErr.Code)
	require.Equal(t, int32(1), hits.Load())
}

func TestCallRPCRequiresToken(t *testing.T) {
	origToken := rpcAuthToken
	rpcAuthToken = ""
	t.Cleanup(func() { rpcAuthToken = origToken })

	_, err := callRPC("auction_sendTransaction", nil, true)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "AUCTION_RPC_TOKEN"))
}

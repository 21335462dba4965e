package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"auctionchain/core/types"
	"auctionchain/crypto"
	"auctionchain/native/token"
)

var nowFn = time.Now

// txFlags are shared by every signing command.
type txFlags struct {
	key     *string
	nonce   *int64
	chainID *uint64
}

func bindTxFlags(fs *flag.FlagSet) txFlags {
	return txFlags{
		key:     fs.String("key", "", "sender keystore file"),
		nonce:   fs.Int64("nonce", -1, "override the sender nonce"),
		chainID: fs.Uint64("chain-id", 0, "override the chain id reported by the node"),
	}
}

type txReceipt struct {
	TxHash  string         `json:"txHash"`
	Type    string         `json:"type"`
	Sender  string         `json:"sender"`
	Nonce   uint64         `json:"nonce"`
	AssetID string         `json:"assetId"`
	Events  []*types.Event `json:"events"`
}

// submit signs the payload with the sender key, adds co-signatures and sends
// it with auction_sendTransaction.
func submit(flags txFlags, txType types.TxType, payload interface{}, cosigners []*crypto.PrivateKey) (*txReceipt, error) {
	if strings.TrimSpace(*flags.key) == "" {
		return nil, fmt.Errorf("--key is required")
	}
	key, err := loadKey(*flags.key, signerPassphrase)
	if err != nil {
		return nil, err
	}
	sender := key.PubKey().Address().Array()

	chainID := *flags.chainID
	if chainID == 0 {
		if chainID, err = fetchChainID(); err != nil {
			return nil, err
		}
	}
	var nonce uint64
	if *flags.nonce >= 0 {
		nonce = uint64(*flags.nonce)
	} else {
		balance, err := fetchBalance(sender)
		if err != nil {
			return nil, err
		}
		nonce = balance.Nonce
	}

	encoded, err := types.EncodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	tx := &types.Transaction{ChainID: chainID, Type: txType, Nonce: nonce, Payload: encoded}
	if err := tx.Sign(key.PrivateKey); err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	for _, cosigner := range cosigners {
		if err := tx.CoSign(cosigner.PrivateKey); err != nil {
			return nil, fmt.Errorf("co-sign transaction: %w", err)
		}
	}

	raw, err := rpcCall("auction_sendTransaction", []interface{}{tx}, true)
	if err != nil {
		return nil, err
	}
	var receipt txReceipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	return &receipt, nil
}

func fetchChainID() (uint64, error) {
	raw, err := rpcCall("program_describe", nil, false)
	if err != nil {
		return 0, fmt.Errorf("fetch chain id: %w", err)
	}
	var desc struct {
		ChainID uint64 `json:"chainId"`
	}
	if err := json.Unmarshal(raw, &desc); err != nil {
		return 0, fmt.Errorf("decode program description: %w", err)
	}
	return desc.ChainID, nil
}

type balanceResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

func fetchBalance(addr [20]byte) (*balanceResult, error) {
	raw, err := rpcCall("bank_getBalance", []interface{}{crypto.FormatAddress(addr)}, false)
	if err != nil {
		return nil, fmt.Errorf("fetch account: %w", err)
	}
	var out balanceResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &out, nil
}

func printReceipt(stdout io.Writer, receipt *txReceipt) {
	fmt.Fprintf(stdout, "Transaction %s applied (%s, nonce %d)\n", receipt.TxHash, receipt.Type, receipt.Nonce)
	if receipt.AssetID != "" {
		fmt.Fprintf(stdout, "Asset: %s\n", receipt.AssetID)
	}
	for _, evt := range receipt.Events {
		fmt.Fprintf(stdout, "  %s %s\n", evt.Type, formatAttributes(evt.Attributes))
	}
}

func requireAsset(value string) ([32]byte, error) {
	if strings.TrimSpace(value) == "" {
		return [32]byte{}, fmt.Errorf("--asset is required")
	}
	return token.ParseAssetID(value)
}

func requireAddress(name, value string) ([20]byte, error) {
	if strings.TrimSpace(value) == "" {
		return [20]byte{}, fmt.Errorf("--%s is required", name)
	}
	addr, err := crypto.ParseAddress(value)
	if err != nil {
		return [20]byte{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return addr, nil
}

// parseStartTime accepts a unix timestamp, an RFC3339 time or a duration
// relative to now prefixed with '+'.
func parseStartTime(value string) (uint64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("--start is required")
	}
	if strings.HasPrefix(value, "+") {
		d, err := time.ParseDuration(value[1:])
		if err != nil {
			return 0, fmt.Errorf("invalid --start offset: %w", err)
		}
		return uint64(nowFn().Add(d).Unix()), nil
	}
	if unix, err := strconv.ParseUint(value, 10, 64); err == nil {
		return unix, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return 0, fmt.Errorf("invalid --start %q: expected unix seconds, RFC3339 or +duration", value)
	}
	if ts.Unix() < 0 {
		return 0, fmt.Errorf("--start must not precede the unix epoch")
	}
	return uint64(ts.Unix()), nil
}

func runTransfer(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("transfer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := bindTxFlags(fs)
	to := fs.String("to", "", "recipient address")
	amount := fs.String("amount", "", "amount to send")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	recipient, err := requireAddress("to", *to)
	if err != nil {
		return printError(stderr, err.Error())
	}
	value, err := parseAmount(*amount)
	if err != nil {
		return printError(stderr, err.Error())
	}
	receipt, err := submit(flags, types.TxTypeTransfer, &types.TransferPayload{To: recipient, Amount: value}, nil)
	if err != nil {
		return printError(stderr, err.Error())
	}
	printReceipt(stdout, receipt)
	return 0
}

func runIssue(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("issue", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := bindTxFlags(fs)
	name := fs.String("name", "", "asset name")
	symbol := fs.String("symbol", "", "asset symbol")
	uri := fs.String("uri", "", "metadata URI")
	collection := fs.String("collection", "", "collection asset id")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	payload := &types.IssueAssetPayload{Name: *name, Symbol: *symbol, URI: *uri}
	if strings.TrimSpace(*collection) != "" {
		id, err := token.ParseAssetID(*collection)
		if err != nil {
			return printError(stderr, fmt.Sprintf("invalid --collection: %v", err))
		}
		payload.Collection = id[:]
	}
	receipt, err := submit(flags, types.TxTypeIssueAsset, payload, nil)
	if err != nil {
		return printError(stderr, err.Error())
	}
	printReceipt(stdout, receipt)
	return 0
}

func runTransferAsset(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("transfer-asset", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := bindTxFlags(fs)
	assetFlag := fs.String("asset", "", "asset id")
	to := fs.String("to", "", "recipient address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	asset, err := requireAsset(*assetFlag)
	if err != nil {
		return printError(stderr, err.Error())
	}
	recipient, err := requireAddress("to", *to)
	if err != nil {
		return printError(stderr, err.Error())
	}
	receipt, err := submit(flags, types.TxTypeTransferAsset, &types.TransferAssetPayload{Asset: asset, To: recipient}, nil)
	if err != nil {
		return printError(stderr, err.Error())
	}
	printReceipt(stdout, receipt)
	return 0
}

func runOpen(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := bindTxFlags(fs)
	assetFlag := fs.String("asset", "", "asset id to escrow")
	start := fs.String("start", "", "start time: unix seconds, RFC3339 or +duration")
	price := fs.String("price", "0", "advertised starting price")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	asset, err := requireAsset(*assetFlag)
	if err != nil {
		return printError(stderr, err.Error())
	}
	startTime, err := parseStartTime(*start)
	if err != nil {
		return printError(stderr, err.Error())
	}
	startingPrice, err := parseUintAmount(*price)
	if err != nil {
		return printError(stderr, err.Error())
	}
	payload := &types.AuctionOpenPayload{Asset: asset, StartTime: startTime, StartingPrice: startingPrice}
	receipt, err := submit(flags, types.TxTypeAuctionOpen, payload, nil)
	if err != nil {
		return printError(stderr, err.Error())
	}
	printReceipt(stdout, receipt)
	return 0
}

func runBid(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bid", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := bindTxFlags(fs)
	assetFlag := fs.String("asset", "", "asset id")
	amount := fs.String("amount", "", "bid amount")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	asset, err := requireAsset(*assetFlag)
	if err != nil {
		return printError(stderr, err.Error())
	}
	value, err := parseUintAmount(*amount)
	if err != nil {
		return printError(stderr, err.Error())
	}
	receipt, err := submit(flags, types.TxTypeAuctionBid, &types.AuctionBidPayload{Asset: asset, Amount: value}, nil)
	if err != nil {
		return printError(stderr, err.Error())
	}
	printReceipt(stdout, receipt)
	return 0
}

func runReject(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reject", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := bindTxFlags(fs)
	assetFlag := fs.String("asset", "", "asset id")
	bidder := fs.String("bidder", "", "bidder whose first bid is removed")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	asset, err := requireAsset(*assetFlag)
	if err != nil {
		return printError(stderr, err.Error())
	}
	addr, err := requireAddress("bidder", *bidder)
	if err != nil {
		return printError(stderr, err.Error())
	}
	receipt, err := submit(flags, types.TxTypeAuctionReject, &types.AuctionRejectPayload{Asset: asset, Bidder: addr}, nil)
	if err != nil {
		return printError(stderr, err.Error())
	}
	printReceipt(stdout, receipt)
	return 0
}

func runAccept(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("accept", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := bindTxFlags(fs)
	assetFlag := fs.String("asset", "", "asset id")
	winner := fs.String("winner", "", "winning bidder")
	winnerKey := fs.String("winner-key", "", "keystore of the winning bidder, used to co-sign payment")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	asset, err := requireAsset(*assetFlag)
	if err != nil {
		return printError(stderr, err.Error())
	}
	addr, err := requireAddress("winner", *winner)
	if err != nil {
		return printError(stderr, err.Error())
	}
	if strings.TrimSpace(*winnerKey) == "" {
		return printError(stderr, "--winner-key is required: the winner must co-sign the payment")
	}
	cosigner, err := loadKey(*winnerKey, cosignerPassphrase)
	if err != nil {
		return printError(stderr, err.Error())
	}
	if cosigner.PubKey().Address().Array() != addr {
		return printError(stderr, "--winner-key does not match --winner")
	}
	payload := &types.AuctionAcceptPayload{Asset: asset, Winner: addr}
	receipt, err := submit(flags, types.TxTypeAuctionAccept, payload, []*crypto.PrivateKey{cosigner})
	if err != nil {
		return printError(stderr, err.Error())
	}
	printReceipt(stdout, receipt)
	return 0
}

func runCancel(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cancel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := bindTxFlags(fs)
	assetFlag := fs.String("asset", "", "asset id")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	asset, err := requireAsset(*assetFlag)
	if err != nil {
		return printError(stderr, err.Error())
	}
	receipt, err := submit(flags, types.TxTypeAuctionCancel, &types.AuctionCancelPayload{Asset: asset}, nil)
	if err != nil {
		return printError(stderr, err.Error())
	}
	printReceipt(stdout, receipt)
	return 0
}

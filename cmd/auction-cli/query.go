package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strings"

	"auctionchain/crypto"
	"auctionchain/native/token"
)

type auctionBid struct {
	Bidder string `json:"bidder"`
	Amount uint64 `json:"amount"`
}

type auctionResult struct {
	Asset         string       `json:"asset"`
	Phase         string       `json:"phase"`
	Seller        string       `json:"seller"`
	Authority     string       `json:"authority"`
	StartTime     int64        `json:"startTime"`
	StartingPrice uint64       `json:"startingPrice"`
	Live          bool         `json:"live"`
	Deposit       string       `json:"deposit"`
	Bids          []auctionBid `json:"bids"`
}

func formatAttributes(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+attrs[k])
	}
	return strings.Join(parts, " ")
}

// printJSON indents a raw RPC result.
func printJSON(stdout io.Writer, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := stdout.Write(buf.Bytes())
	return err
}

func assetQuery(name string, args []string, stderr io.Writer) (string, int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	assetFlag := fs.String("asset", "", "asset id")
	if err := fs.Parse(args); err != nil {
		return "", 1
	}
	asset, err := requireAsset(*assetFlag)
	if err != nil {
		return "", printError(stderr, err.Error())
	}
	return token.FormatAssetID(asset), 0
}

func runGet(args []string, stdout, stderr io.Writer) int {
	asset, code := assetQuery("get", args, stderr)
	if code != 0 {
		return code
	}
	raw, err := rpcCall("auction_get", []interface{}{asset}, false)
	if err != nil {
		return printError(stderr, err.Error())
	}
	var result auctionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return printError(stderr, fmt.Sprintf("decode auction: %v", err))
	}
	fmt.Fprintf(stdout, "Asset: %s\nPhase: %s\n", result.Asset, result.Phase)
	if result.Phase == "unopened" {
		return 0
	}
	fmt.Fprintf(stdout, "Seller: %s\nAuthority: %s\n", result.Seller, result.Authority)
	fmt.Fprintf(stdout, "Start: %d (live: %t)\n", result.StartTime, result.Live)
	fmt.Fprintf(stdout, "Starting price: %s\n", formatUintAmount(result.StartingPrice))
	if deposit, ok := new(big.Int).SetString(result.Deposit, 10); ok {
		fmt.Fprintf(stdout, "Deposit: %s\n", formatAmount(deposit))
	}
	fmt.Fprintf(stdout, "Bids: %d\n", len(result.Bids))
	for i, bid := range result.Bids {
		fmt.Fprintf(stdout, "  %d. %s %s\n", i+1, bid.Bidder, formatUintAmount(bid.Amount))
	}
	return 0
}

func runAuthority(args []string, stdout, stderr io.Writer) int {
	asset, code := assetQuery("authority", args, stderr)
	if code != 0 {
		return code
	}
	return printRPC("auction_authority", []interface{}{asset}, stdout, stderr)
}

func runAsset(args []string, stdout, stderr io.Writer) int {
	asset, code := assetQuery("asset", args, stderr)
	if code != 0 {
		return code
	}
	return printRPC("token_getAsset", []interface{}{asset}, stdout, stderr)
}

func runHolding(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("holding", flag.ContinueOnError)
	fs.SetOutput(stderr)
	assetFlag := fs.String("asset", "", "asset id")
	owner := fs.String("owner", "", "owner address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	asset, err := requireAsset(*assetFlag)
	if err != nil {
		return printError(stderr, err.Error())
	}
	addr, err := requireAddress("owner", *owner)
	if err != nil {
		return printError(stderr, err.Error())
	}
	return printRPC("token_getHolding", []interface{}{token.FormatAssetID(asset), crypto.FormatAddress(addr)}, stdout, stderr)
}

func runBalance(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("balance", flag.ContinueOnError)
	fs.SetOutput(stderr)
	address := fs.String("address", "", "account address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	addr, err := requireAddress("address", *address)
	if err != nil {
		return printError(stderr, err.Error())
	}
	result, err := fetchBalance(addr)
	if err != nil {
		return printError(stderr, err.Error())
	}
	balance, ok := new(big.Int).SetString(result.Balance, 10)
	if !ok {
		return printError(stderr, fmt.Sprintf("invalid balance %q", result.Balance))
	}
	fmt.Fprintf(stdout, "Address: %s\nBalance: %s\nNonce: %d\n", result.Address, formatAmount(balance), result.Nonce)
	return 0
}

func runDescribe(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		return printError(stderr, "describe takes no arguments")
	}
	return printRPC("program_describe", nil, stdout, stderr)
}

func runEvents(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cursor := fs.String("cursor", "", "resume after this cursor")
	limit := fs.Int("limit", 100, "maximum number of events")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	query := map[string]interface{}{"cursor": *cursor, "limit": *limit}
	raw, err := rpcCall("auction_events", []interface{}{query}, false)
	if err != nil {
		return printError(stderr, err.Error())
	}
	var records []struct {
		Cursor string `json:"cursor"`
		TxHash string `json:"txHash"`
		Event  struct {
			Type       string            `json:"type"`
			Attributes map[string]string `json:"attributes"`
		} `json:"event"`
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return printError(stderr, fmt.Sprintf("decode events: %v", err))
	}
	for _, rec := range records {
		fmt.Fprintf(stdout, "%s %s %s\n", rec.Cursor, rec.Event.Type, formatAttributes(rec.Event.Attributes))
	}
	return 0
}

func printRPC(method string, params []interface{}, stdout, stderr io.Writer) int {
	raw, err := rpcCall(method, params, false)
	if err != nil {
		return printError(stderr, err.Error())
	}
	if err := printJSON(stdout, raw); err != nil {
		return printError(stderr, err.Error())
	}
	return 0
}

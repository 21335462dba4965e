package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

var rpcEndpoint = defaultRPCEndpoint() // Defaults to localhost, can be overridden via AUCTION_RPC_URL or --rpc flag
var rpcAuthToken = os.Getenv("AUCTION_RPC_TOKEN")

type command func(args []string, stdout, stderr io.Writer) int

var commands = map[string]command{
	"keygen":         runKeygen,
	"address":        runAddress,
	"issue":          runIssue,
	"transfer":       runTransfer,
	"transfer-asset": runTransferAsset,
	"open":           runOpen,
	"bid":            runBid,
	"reject":         runReject,
	"accept":         runAccept,
	"cancel":         runCancel,
	"get":            runGet,
	"authority":      runAuthority,
	"asset":          runAsset,
	"holding":        runHolding,
	"balance":        runBalance,
	"describe":       runDescribe,
	"events":         runEvents,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	args, err := applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage())
		return 1
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		fmt.Fprintln(stderr, usage())
		return 1
	}
	return cmd(args[1:], stdout, stderr)
}

func usage() string {
	return strings.TrimSpace(`
Usage: auction-cli [--rpc URL] <command> [flags]

Keys:
  keygen    --out FILE                        create an encrypted keystore
  address   --key FILE                        print the keystore address

Transactions (signed with --key, submitted with AUCTION_RPC_TOKEN):
  transfer        --to ADDR --amount N        move native currency
  issue           --name --symbol [--uri] [--collection ID]
  transfer-asset  --asset ID --to ADDR
  open            --asset ID --start TIME [--price N]
  bid             --asset ID --amount N
  reject          --asset ID --bidder ADDR
  accept          --asset ID --winner ADDR --winner-key FILE
  cancel          --asset ID

Queries:
  get --asset ID | authority --asset ID | asset --asset ID
  holding --asset ID --owner ADDR | balance --address ADDR
  describe | events [--cursor N] [--limit N]`)
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("AUCTION_RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--rpc" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for --rpc")
			}
			rpcEndpoint = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--rpc=") {
			rpcEndpoint = strings.TrimPrefix(arg, "--rpc=")
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}

func printError(stderr io.Writer, msg string) int {
	fmt.Fprintf(stderr, "Error: %s\n", msg)
	return 1
}

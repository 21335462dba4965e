package rpc

import (
	"encoding/json"

	"auctionchain/core"
	"auctionchain/core/types"
	"auctionchain/crypto"
	"auctionchain/native/auction"
	"auctionchain/native/token"
)

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

// BidResult is one entry of an auction's bid ledger.
type BidResult struct {
	Bidder string `json:"bidder"`
	Amount uint64 `json:"amount"`
}

// AuctionResult reports an asset's auction. Only Asset and Phase are set
// unless the auction is open.
type AuctionResult struct {
	Asset         string      `json:"asset"`
	Phase         string      `json:"phase"`
	Seller        string      `json:"seller,omitempty"`
	Authority     string      `json:"authority,omitempty"`
	Bump          *uint8      `json:"bump,omitempty"`
	StartTime     int64       `json:"startTime,omitempty"`
	StartingPrice uint64      `json:"startingPrice,omitempty"`
	Live          bool        `json:"live"`
	Deposit       string      `json:"deposit,omitempty"`
	CreatedAt     int64       `json:"createdAt,omitempty"`
	Bids          []BidResult `json:"bids"`
}

func auctionResultFrom(asset [32]byte, view *core.AuctionView) AuctionResult {
	out := AuctionResult{
		Asset: token.FormatAssetID(asset),
		Phase: view.Phase.String(),
		Bids:  []BidResult{},
	}
	rec := view.Record
	if rec == nil {
		return out
	}
	bump := rec.Bump
	out.Seller = crypto.FormatAddress(rec.Seller)
	out.Authority = crypto.FormatAddress(rec.Authority)
	out.Bump = &bump
	out.StartTime = rec.StartTime
	out.StartingPrice = rec.StartingPrice
	out.Live = view.Live
	out.CreatedAt = rec.CreatedAt
	if rec.Deposit != nil {
		out.Deposit = rec.Deposit.String()
	}
	for _, bid := range rec.Bids {
		out.Bids = append(out.Bids, BidResult{Bidder: crypto.FormatAddress(bid.Bidder), Amount: bid.Amount})
	}
	return out
}

// AuthorityResult is the derived authority controlling an asset's vault.
type AuthorityResult struct {
	Asset   string `json:"asset"`
	Address string `json:"address"`
	Bump    uint8  `json:"bump"`
	Program string `json:"program"`
}

func authorityResultFrom(asset [32]byte, a auction.Authority) AuthorityResult {
	return AuthorityResult{
		Asset:   token.FormatAssetID(asset),
		Address: crypto.FormatAddress(a.Address),
		Bump:    a.Bump,
		Program: crypto.FormatAddress(auction.ProgramID),
	}
}

type AssetResult struct {
	ID         string `json:"id"`
	Issuer     string `json:"issuer"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	URI        string `json:"uri"`
	Collection string `json:"collection,omitempty"`
	Supply     uint64 `json:"supply"`
	CreatedAt  int64  `json:"createdAt"`
}

func assetResultFrom(a *token.Asset) AssetResult {
	out := AssetResult{
		ID:        token.FormatAssetID(a.ID),
		Issuer:    crypto.FormatAddress(a.Issuer),
		Name:      a.Name,
		Symbol:    a.Symbol,
		URI:       a.URI,
		Supply:    a.Supply,
		CreatedAt: a.CreatedAt,
	}
	if a.HasCollection() {
		out.Collection = token.FormatAssetID(a.Collection)
	}
	return out
}

type HoldingResult struct {
	Asset  string `json:"asset"`
	Owner  string `json:"owner"`
	Amount uint64 `json:"amount"`
}

type BalanceResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

// InstructionResult names one transaction type the program accepts.
type InstructionResult struct {
	Name    string `json:"name"`
	Type    uint8  `json:"type"`
	Module  string `json:"module"`
	CoSigns bool   `json:"requiresCoSigner,omitempty"`
}

// ProgramDescription is the public interface of the auction program: its
// identity, storage economics and accepted instructions.
type ProgramDescription struct {
	ProgramID    string              `json:"programId"`
	Module       string              `json:"module"`
	ChainID      uint64              `json:"chainId"`
	MaxBids      int                 `json:"maxBids"`
	RentPerByte  uint64              `json:"rentPerByte"`
	RecordSize   uint64              `json:"recordSize"`
	Deposit      string              `json:"deposit"`
	Instructions []InstructionResult `json:"instructions"`
	Errors       []ErrorDescription  `json:"errors"`
}

type ErrorDescription struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var describedTxTypes = []types.TxType{
	types.TxTypeTransfer,
	types.TxTypeIssueAsset,
	types.TxTypeTransferAsset,
	types.TxTypeAuctionOpen,
	types.TxTypeAuctionBid,
	types.TxTypeAuctionReject,
	types.TxTypeAuctionAccept,
	types.TxTypeAuctionCancel,
}

func describeProgram(node *core.Node) ProgramDescription {
	params := node.Params()
	out := ProgramDescription{
		ProgramID:   crypto.FormatAddress(auction.ProgramID),
		Module:      auction.ModuleName,
		ChainID:     node.ChainID(),
		MaxBids:     params.MaxBids,
		RentPerByte: params.RentPerByte,
		RecordSize:  auction.RecordSize(params.MaxBids),
		Deposit:     params.Deposit().String(),
	}
	for _, t := range describedTxTypes {
		out.Instructions = append(out.Instructions, InstructionResult{
			Name:    t.String(),
			Type:    uint8(t),
			Module:  t.Module(),
			CoSigns: t == types.TxTypeAuctionAccept,
		})
	}
	for _, m := range domainErrors {
		out.Errors = append(out.Errors, ErrorDescription{Code: m.code, Message: m.err.Error()})
	}
	return out
}

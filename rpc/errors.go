package rpc

import (
	"errors"
	"net/http"

	"auctionchain/core"
	"auctionchain/core/types"
	"auctionchain/native/auction"
	"auctionchain/native/bank"
	"auctionchain/native/common"
	"auctionchain/native/token"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeNotFound       = -32004
	codeInvalidTx      = -32010
	codeRateLimited    = -32020

	codeAuctionNotStarted = -32100
	codeAuctionEnded      = -32101
	codeAuctionNotEnded   = -32102
	codeBidsPlaced        = -32103
	codeBidNotFound       = -32104
	codeCapacityExceeded  = -32105
	codeAuctionClosed     = -32106
	codeAuctionExists     = -32107
	codeInsufficientFunds = -32110
	codeModulePaused      = -32120
)

type errorMapping struct {
	err    error
	code   int
	status int
}

// domainErrors is matched in order; wrapped errors must precede the sentinels
// they wrap.
var domainErrors = []errorMapping{
	{auction.ErrAuctionNotStarted, codeAuctionNotStarted, http.StatusConflict},
	{auction.ErrAuctionEnded, codeAuctionEnded, http.StatusConflict},
	{auction.ErrAuctionNotEnded, codeAuctionNotEnded, http.StatusConflict},
	{auction.ErrBidsPlaced, codeBidsPlaced, http.StatusConflict},
	{auction.ErrBidNotFound, codeBidNotFound, http.StatusNotFound},
	{auction.ErrCapacityExceeded, codeCapacityExceeded, http.StatusConflict},
	{common.ErrUnauthorized, codeUnauthorized, http.StatusForbidden},
	{common.ErrSeedsMismatch, codeUnauthorized, http.StatusForbidden},
	{auction.ErrAuctionClosed, codeAuctionClosed, http.StatusGone},
	{auction.ErrAuctionNotFound, codeNotFound, http.StatusNotFound},
	{auction.ErrAuctionExists, codeAuctionExists, http.StatusConflict},
	{auction.ErrVaultNotEmpty, codeAuctionExists, http.StatusConflict},
	{auction.ErrVaultTransfer, codeUnauthorized, http.StatusForbidden},
	{token.ErrAssetNotFound, codeNotFound, http.StatusNotFound},
	{token.ErrCollectionNotFound, codeNotFound, http.StatusNotFound},
	{token.ErrInsufficientHolding, codeInsufficientFunds, http.StatusConflict},
	{bank.ErrInsufficientBalance, codeInsufficientFunds, http.StatusConflict},
	{common.ErrModulePaused, codeModulePaused, http.StatusServiceUnavailable},
}

var invalidTxErrors = []error{
	core.ErrInvalidChainID,
	core.ErrInvalidNonce,
	core.ErrUnknownTxType,
	core.ErrUnexpectedCoSigner,
	types.ErrMissingSignature,
	types.ErrMalformedSignature,
	types.ErrDuplicateCoSigner,
	auction.ErrInvalidStartTime,
	token.ErrInvalidMetadata,
	token.ErrInvalidAmount,
	bank.ErrInvalidAmount,
}

// errorFor maps an execution error onto a JSON-RPC error and HTTP status.
func errorFor(err error) (int, *RPCError) {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			return m.status, &RPCError{Code: m.code, Message: err.Error()}
		}
	}
	for _, target := range invalidTxErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, &RPCError{Code: codeInvalidTx, Message: err.Error()}
		}
	}
	return http.StatusInternalServerError, &RPCError{Code: codeServerError, Message: err.Error()}
}

package rpc

import (
	"encoding/json"
	"net/http"

	"auctionchain/core/types"
	"auctionchain/crypto"
	"auctionchain/native/token"
)

const maxEventPage = 500

func assetParam(raw json.RawMessage) ([32]byte, error) {
	value, err := stringParam(raw, "asset")
	if err != nil {
		return [32]byte{}, err
	}
	id, err := token.ParseAssetID(value)
	if err != nil {
		return [32]byte{}, invalidParams("%v", err)
	}
	return id, nil
}

func addressParam(raw json.RawMessage, name string) ([20]byte, error) {
	value, err := stringParam(raw, name)
	if err != nil {
		return [20]byte{}, err
	}
	addr, err := crypto.ParseAddress(value)
	if err != nil {
		return [20]byte{}, invalidParams("invalid %s: %v", name, err)
	}
	return addr, nil
}

func (s *Server) handleSendTransaction(r *http.Request, params []json.RawMessage) (interface{}, error) {
	if err := requireParams(params, 1); err != nil {
		return nil, err
	}
	var tx types.Transaction
	if err := json.Unmarshal(params[0], &tx); err != nil {
		return nil, invalidParams("invalid transaction: %v", err)
	}
	receipt, err := s.node.ApplyTransaction(r.Context(), &tx)
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *Server) handleAuctionGet(_ *http.Request, params []json.RawMessage) (interface{}, error) {
	if err := requireParams(params, 1); err != nil {
		return nil, err
	}
	asset, err := assetParam(params[0])
	if err != nil {
		return nil, err
	}
	view, err := s.node.Auction(asset)
	if err != nil {
		return nil, err
	}
	return auctionResultFrom(asset, view), nil
}

func (s *Server) handleAuthority(_ *http.Request, params []json.RawMessage) (interface{}, error) {
	if err := requireParams(params, 1); err != nil {
		return nil, err
	}
	asset, err := assetParam(params[0])
	if err != nil {
		return nil, err
	}
	authority, err := s.node.Authority(asset)
	if err != nil {
		return nil, err
	}
	return authorityResultFrom(asset, authority), nil
}

type eventsParams struct {
	Cursor string `json:"cursor"`
	Limit  int    `json:"limit"`
}

func (s *Server) handleEvents(_ *http.Request, params []json.RawMessage) (interface{}, error) {
	var p eventsParams
	if len(params) > 0 {
		if err := json.Unmarshal(params[0], &p); err != nil {
			return nil, invalidParams("invalid events query: %v", err)
		}
	}
	if p.Limit <= 0 || p.Limit > maxEventPage {
		p.Limit = maxEventPage
	}
	return s.node.Events(p.Cursor, p.Limit), nil
}

func (s *Server) handleDescribe(_ *http.Request, _ []json.RawMessage) (interface{}, error) {
	return describeProgram(s.node), nil
}

func (s *Server) handleGetAsset(_ *http.Request, params []json.RawMessage) (interface{}, error) {
	if err := requireParams(params, 1); err != nil {
		return nil, err
	}
	id, err := assetParam(params[0])
	if err != nil {
		return nil, err
	}
	asset, err := s.node.Asset(id)
	if err != nil {
		return nil, err
	}
	return assetResultFrom(asset), nil
}

func (s *Server) handleGetHolding(_ *http.Request, params []json.RawMessage) (interface{}, error) {
	if err := requireParams(params, 2); err != nil {
		return nil, err
	}
	asset, err := assetParam(params[0])
	if err != nil {
		return nil, err
	}
	owner, err := addressParam(params[1], "owner")
	if err != nil {
		return nil, err
	}
	amount, err := s.node.Holding(asset, owner)
	if err != nil {
		return nil, err
	}
	return HoldingResult{Asset: token.FormatAssetID(asset), Owner: crypto.FormatAddress(owner), Amount: amount}, nil
}

func (s *Server) handleGetBalance(_ *http.Request, params []json.RawMessage) (interface{}, error) {
	if err := requireParams(params, 1); err != nil {
		return nil, err
	}
	addr, err := addressParam(params[0], "address")
	if err != nil {
		return nil, err
	}
	account, err := s.node.Account(addr)
	if err != nil {
		return nil, err
	}
	return BalanceResult{
		Address: crypto.FormatAddress(addr),
		Balance: account.Balance.String(),
		Nonce:   account.Nonce,
	}, nil
}

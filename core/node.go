package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cache "github.com/Code-Hex/go-generics-cache"
	"github.com/Code-Hex/go-generics-cache/policy/lru"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"auctionchain/core/events"
	"auctionchain/core/state"
	"auctionchain/core/types"
	"auctionchain/crypto"
	"auctionchain/native/auction"
	"auctionchain/native/bank"
	"auctionchain/native/common"
	"auctionchain/native/token"
	"auctionchain/observability/metrics"
	"auctionchain/storage"
)

var (
	ErrInvalidChainID     = errors.New("core: chain id mismatch")
	ErrInvalidNonce       = errors.New("core: invalid nonce")
	ErrUnknownTxType      = errors.New("core: unknown transaction type")
	ErrUnexpectedCoSigner = errors.New("core: co-signatures are only accepted on auction accept")
	ErrNilTransaction     = errors.New("core: nil transaction")
)

const authorityCacheSize = 4096

// Options configures a Node. Zero values fall back to defaults.
type Options struct {
	ChainID uint64
	Params  auction.Params
	Pauses  common.PauseView
	Now     func() time.Time
	Logger  *slog.Logger
}

// Node applies signed transactions to the chain state. Each transaction is
// staged in an overlay and committed as a single batch, so a failed
// transaction leaves no trace. Transactions touching disjoint assets and
// accounts run in parallel.
type Node struct {
	db      storage.Database
	chainID uint64
	params  auction.Params
	pauses  common.PauseView
	nowFn   func() time.Time
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *metrics.AuctionMetrics

	locks       lockTable
	stream      eventStream
	authorities *cache.Cache[[32]byte, auction.Authority]
}

// Receipt describes a committed transaction.
type Receipt struct {
	TxHash  string         `json:"txHash"`
	Type    string         `json:"type"`
	Sender  string         `json:"sender"`
	Nonce   uint64         `json:"nonce"`
	AssetID string         `json:"assetId,omitempty"`
	Events  []*types.Event `json:"events"`
}

func NewNode(db storage.Database, opts Options) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("database must not be nil")
	}
	params := opts.Params
	if params.MaxBids == 0 {
		params = auction.DefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("auction params: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Node{
		db:          db,
		chainID:     opts.ChainID,
		params:      params,
		pauses:      opts.Pauses,
		nowFn:       nowFn,
		logger:      logger.With("component", "node"),
		tracer:      otel.Tracer("auctionchain/core"),
		metrics:     metrics.Auction(),
		authorities: cache.New(cache.AsLRU[[32]byte, auction.Authority](lru.WithCapacity(authorityCacheSize))),
	}, nil
}

func (n *Node) ChainID() uint64 { return n.chainID }

func (n *Node) Params() auction.Params { return n.params }

// Authority returns the derived authority for asset. Derivations are pure so
// results are memoised.
func (n *Node) Authority(asset [32]byte) (auction.Authority, error) {
	if cached, ok := n.authorities.Get(asset); ok {
		return cached, nil
	}
	derived, err := auction.DeriveAuthority(asset)
	if err != nil {
		return auction.Authority{}, err
	}
	n.authorities.Set(asset, derived)
	return derived, nil
}

// execution bundles the engines bound to one staged transaction.
type execution struct {
	manager *state.Manager
	bank    *bank.Engine
	token   *token.Engine
	auction *auction.Engine
	buffer  *events.Buffer
}

func (n *Node) newExecution(kv storage.KeyValueStore, now int64) *execution {
	manager := state.NewManager(kv)
	buffer := events.NewBuffer()
	clock := func() int64 { return now }

	bankEngine := bank.NewEngine()
	bankEngine.SetState(manager)
	bankEngine.SetEmitter(buffer)

	tokenEngine := token.NewEngine()
	tokenEngine.SetState(manager)
	tokenEngine.SetEmitter(buffer)
	tokenEngine.SetNowFunc(clock)

	auctionEngine := auction.NewEngine()
	auctionEngine.SetState(manager)
	auctionEngine.SetCustody(tokenEngine)
	auctionEngine.SetPayments(bankEngine)
	auctionEngine.SetParams(n.params)
	auctionEngine.SetEmitter(buffer)
	auctionEngine.SetNowFunc(clock)

	return &execution{
		manager: manager,
		bank:    bankEngine,
		token:   tokenEngine,
		auction: auctionEngine,
		buffer:  buffer,
	}
}

// ApplyTransaction validates and executes tx. The returned receipt carries the
// events emitted by the transaction; on error nothing is written and the
// sender nonce is unchanged.
func (n *Node) ApplyTransaction(ctx context.Context, tx *types.Transaction) (receipt *Receipt, err error) {
	if tx == nil {
		return nil, ErrNilTransaction
	}
	started := time.Now()
	txType := tx.Type.String()
	_, span := n.tracer.Start(ctx, "core.apply_tx", trace.WithAttributes(
		attribute.String("tx.type", txType),
		attribute.Int64("tx.nonce", int64(tx.Nonce)),
	))
	defer func() {
		n.metrics.ObserveTx(txType, resultLabel(err), time.Since(started))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	if !tx.Type.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTxType, txType)
	}
	if tx.ChainID != n.chainID {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidChainID, tx.ChainID, n.chainID)
	}
	if len(tx.CoSignatures) > 0 && tx.Type != types.TxTypeAuctionAccept {
		return nil, ErrUnexpectedCoSigner
	}
	sender, err := tx.From()
	if err != nil {
		return nil, err
	}
	cosigners, err := tx.CoSigners()
	if err != nil {
		return nil, err
	}
	if err := common.RequireActive(n.pauses, tx.Type.Module()); err != nil {
		return nil, err
	}
	hash, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	txHash := hexutil.Encode(hash)
	span.SetAttributes(attribute.String("tx.hash", txHash))

	payload, locks, err := n.prepare(tx, sender)
	if err != nil {
		return nil, err
	}
	release := n.locks.acquire(locks)
	defer release()

	overlay := storage.NewOverlay(n.db)
	defer overlay.Discard()
	now := n.nowFn().Unix()
	exec := n.newExecution(overlay, now)

	account, err := exec.manager.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	if tx.Nonce != account.Nonce {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidNonce, tx.Nonce, account.Nonce)
	}

	signers := common.NewSignerSet(append([][20]byte{sender}, cosigners...)...)
	caller := auction.Caller{Address: sender, Signers: signers}
	assetID, err := n.dispatch(exec, tx, payload, caller)
	if err != nil {
		n.logger.Debug("transaction rejected", "type", txType, "tx", txHash, "error", err)
		return nil, err
	}

	// Engines may have moved the sender's balance; reload before bumping.
	account, err = exec.manager.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	account.Nonce++
	if err := exec.manager.PutAccount(sender, account); err != nil {
		return nil, err
	}
	if err := overlay.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	emitted := exec.buffer.Events()
	n.publish(txHash, now, emitted)
	n.recordOutcome(tx.Type)

	receipt = &Receipt{
		TxHash: txHash,
		Type:   txType,
		Sender: crypto.FormatAddress(sender),
		Nonce:  tx.Nonce,
		Events: emitted,
	}
	if assetID != nil {
		receipt.AssetID = token.FormatAssetID(*assetID)
	}
	n.logger.Info("transaction applied", "type", txType, "tx", txHash, "events", len(emitted))
	return receipt, nil
}

// prepare decodes the payload and collects the lock stripes the transaction
// will touch.
func (n *Node) prepare(tx *types.Transaction, sender [20]byte) (interface{}, lockSet, error) {
	var locks lockSet
	locks.addAccount(sender)

	lockAuction := func(asset [32]byte) error {
		locks.addAsset(asset)
		authority, err := n.Authority(asset)
		if err != nil {
			return err
		}
		locks.addAccount(authority.Address)
		return nil
	}

	switch tx.Type {
	case types.TxTypeTransfer:
		var p types.TransferPayload
		if err := types.DecodePayload(tx.Payload, &p); err != nil {
			return nil, locks, err
		}
		locks.addAccount(p.To)
		return &p, locks, nil
	case types.TxTypeIssueAsset:
		var p types.IssueAssetPayload
		if err := types.DecodePayload(tx.Payload, &p); err != nil {
			return nil, locks, err
		}
		locks.addAsset(token.AssetID(sender, tx.Nonce))
		return &p, locks, nil
	case types.TxTypeTransferAsset:
		var p types.TransferAssetPayload
		if err := types.DecodePayload(tx.Payload, &p); err != nil {
			return nil, locks, err
		}
		locks.addAsset(p.Asset)
		return &p, locks, nil
	case types.TxTypeAuctionOpen:
		var p types.AuctionOpenPayload
		if err := types.DecodePayload(tx.Payload, &p); err != nil {
			return nil, locks, err
		}
		return &p, locks, lockAuction(p.Asset)
	case types.TxTypeAuctionBid:
		var p types.AuctionBidPayload
		if err := types.DecodePayload(tx.Payload, &p); err != nil {
			return nil, locks, err
		}
		locks.addAsset(p.Asset)
		return &p, locks, nil
	case types.TxTypeAuctionReject:
		var p types.AuctionRejectPayload
		if err := types.DecodePayload(tx.Payload, &p); err != nil {
			return nil, locks, err
		}
		locks.addAsset(p.Asset)
		return &p, locks, nil
	case types.TxTypeAuctionAccept:
		var p types.AuctionAcceptPayload
		if err := types.DecodePayload(tx.Payload, &p); err != nil {
			return nil, locks, err
		}
		locks.addAccount(p.Winner)
		return &p, locks, lockAuction(p.Asset)
	case types.TxTypeAuctionCancel:
		var p types.AuctionCancelPayload
		if err := types.DecodePayload(tx.Payload, &p); err != nil {
			return nil, locks, err
		}
		return &p, locks, lockAuction(p.Asset)
	}
	return nil, locks, fmt.Errorf("%w: %s", ErrUnknownTxType, tx.Type)
}

func (n *Node) dispatch(exec *execution, tx *types.Transaction, payload interface{}, caller auction.Caller) (*[32]byte, error) {
	switch p := payload.(type) {
	case *types.TransferPayload:
		return nil, exec.bank.Transfer(caller.Address, p.To, p.Amount, caller.Signers, "transfer")
	case *types.IssueAssetPayload:
		asset, err := exec.token.Issue(caller.Address, tx.Nonce, token.Metadata{
			Name:       p.Name,
			Symbol:     p.Symbol,
			URI:        p.URI,
			Collection: p.Collection,
		})
		if err != nil {
			return nil, err
		}
		id := asset.ID
		return &id, nil
	case *types.TransferAssetPayload:
		authority, err := n.Authority(p.Asset)
		if err != nil {
			return nil, err
		}
		if p.To == authority.Address {
			return nil, auction.ErrVaultTransfer
		}
		return nil, exec.token.Transfer(p.Asset, caller.Address, p.To, 1, caller.Signers)
	case *types.AuctionOpenPayload:
		if p.StartTime > uint64(1<<63-1) {
			return nil, auction.ErrInvalidStartTime
		}
		_, err := exec.auction.Open(caller, p.Asset, int64(p.StartTime), p.StartingPrice)
		return nil, err
	case *types.AuctionBidPayload:
		_, err := exec.auction.PlaceBid(caller, p.Asset, p.Amount)
		return nil, err
	case *types.AuctionRejectPayload:
		_, err := exec.auction.RejectBid(caller, p.Asset, p.Bidder)
		return nil, err
	case *types.AuctionAcceptPayload:
		_, err := exec.auction.AcceptBid(caller, p.Asset, p.Winner)
		return nil, err
	case *types.AuctionCancelPayload:
		return nil, exec.auction.Cancel(caller, p.Asset)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTxType, tx.Type)
}

func (n *Node) recordOutcome(t types.TxType) {
	switch t {
	case types.TxTypeAuctionOpen:
		n.metrics.AuctionOpened()
	case types.TxTypeAuctionBid:
		n.metrics.BidPlaced()
	case types.TxTypeAuctionAccept:
		n.metrics.AuctionClosed("settled")
	case types.TxTypeAuctionCancel:
		n.metrics.AuctionClosed("cancelled")
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidNonce):
		return "bad_nonce"
	case errors.Is(err, common.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, common.ErrModulePaused):
		return "paused"
	case errors.Is(err, auction.ErrAuctionNotStarted):
		return "not_started"
	case errors.Is(err, auction.ErrBidsPlaced):
		return "bids_placed"
	case errors.Is(err, auction.ErrBidNotFound):
		return "bid_not_found"
	case errors.Is(err, auction.ErrCapacityExceeded):
		return "capacity_exceeded"
	default:
		return "error"
	}
}

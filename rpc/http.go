package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"auctionchain/core"
	"auctionchain/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

// ServerConfig configures the JSON-RPC listener.
type ServerConfig struct {
	AuthToken         string
	JWTSecret         string
	JWTIssuer         string
	RequestsPerMinute int
	Burst             int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
}

type methodHandler func(s *Server, r *http.Request, params []json.RawMessage) (interface{}, error)

type method struct {
	auth    bool
	handler methodHandler
}

var methods = map[string]method{
	"auction_sendTransaction": {auth: true, handler: (*Server).handleSendTransaction},
	"auction_get":             {handler: (*Server).handleAuctionGet},
	"auction_authority":       {handler: (*Server).handleAuthority},
	"auction_events":          {handler: (*Server).handleEvents},
	"program_describe":        {handler: (*Server).handleDescribe},
	"token_getAsset":          {handler: (*Server).handleGetAsset},
	"token_getHolding":        {handler: (*Server).handleGetHolding},
	"bank_getBalance":         {handler: (*Server).handleGetBalance},
}

type Server struct {
	node    *core.Node
	cfg     ServerConfig
	logger  *slog.Logger
	auth    *authenticator
	limiter *rateLimiter
	router  http.Handler

	serverMu   sync.Mutex
	httpServer *http.Server
}

func NewServer(node *core.Node, logger *slog.Logger, cfg ServerConfig) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		node:    node,
		cfg:     cfg,
		logger:  logger.With("component", "rpc"),
		auth:    newAuthenticator(cfg.AuthToken, cfg.JWTSecret, cfg.JWTIssuer),
		limiter: newRateLimiter(cfg.RequestsPerMinute, cfg.Burst),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.middleware(s.logger))
		}
		r.Post("/", s.handle)
		r.Get("/program", s.handleProgram)
		r.Get("/ws/events", s.handleEventsWS)
	})
	return otelhttp.NewHandler(r, "auctionchain.rpc")
}

// Handler exposes the routed handler for embedding and tests.
func (s *Server) Handler() http.Handler { return s.router }

// Serve accepts connections on listener until Shutdown is called.
func (s *Server) Serve(listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
	}
	s.serverMu.Lock()
	s.httpServer = srv
	s.serverMu.Unlock()
	s.logger.Info("json-rpc server listening", "address", listener.Addr().String())
	return srv.Serve(listener)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.serverMu.Lock()
	srv := s.httpServer
	s.serverMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// handle is the JSON-RPC entrypoint.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")
	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(recorder, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(recorder, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(recorder, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(recorder, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(recorder, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}
	m, ok := methods[req.Method]
	if !ok {
		writeError(recorder, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}
	defer func() {
		observability.RPC().ObserveCall(req.Method, recorder.status, time.Since(started))
	}()
	if m.auth {
		if authErr := s.auth.check(r); authErr != nil {
			observability.RPC().RecordRejection("unauthorized")
			writeError(recorder, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
	}
	if s.node == nil {
		writeError(recorder, http.StatusServiceUnavailable, req.ID, codeServerError, "node unavailable", nil)
		return
	}

	result, err := m.handler(s, r, req.Params)
	if err != nil {
		var pe *paramError
		if errors.As(err, &pe) {
			writeError(recorder, http.StatusBadRequest, req.ID, codeInvalidParams, pe.Error(), nil)
			return
		}
		status, rpcErr := errorFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("rpc method failed", "method", req.Method, "request_id", requestID(r.Context()), "error", err)
		}
		writeError(recorder, status, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	writeResult(recorder, req.ID, result)
}

func (s *Server) handleProgram(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.node == nil {
		http.Error(w, "node unavailable", http.StatusServiceUnavailable)
		return
	}
	_ = json.NewEncoder(w).Encode(describeProgram(s.node))
}

type paramError struct {
	msg string
}

func (e *paramError) Error() string { return e.msg }

func invalidParams(format string, args ...interface{}) error {
	return &paramError{msg: fmt.Sprintf(format, args...)}
}

func requireParams(params []json.RawMessage, n int) error {
	if len(params) < n {
		return invalidParams("expected %d parameter(s), got %d", n, len(params))
	}
	return nil
}

func stringParam(raw json.RawMessage, name string) (string, error) {
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", invalidParams("%s must be a string", name)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalidParams("%s required", name)
	}
	return value, nil
}

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
)

const (
	rpcAttempts = 3
	rpcDelay    = 250 * time.Millisecond
	rpcTimeout  = 15 * time.Second
)

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// rpcCall is swapped out in tests.
var rpcCall = callRPC

var httpClient = &http.Client{Timeout: rpcTimeout}

// retryableStatus marks transport level failures worth another attempt.
type retryableStatus struct {
	status int
}

func (e *retryableStatus) Error() string {
	return fmt.Sprintf("server returned %d", e.status)
}

// callRPC posts a JSON-RPC request. Connection failures, 429 and 503 are
// retried; JSON-RPC errors are returned as *rpcError without retrying.
func callRPC(method string, params []interface{}, requireAuth bool) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return nil, err
	}
	if requireAuth && strings.TrimSpace(rpcAuthToken) == "" {
		return nil, fmt.Errorf("%s requires AUCTION_RPC_TOKEN to be set", method)
	}

	var result json.RawMessage
	err = retry.Do(
		func() error {
			out, err := doRPCRequest(body, requireAuth)
			if err != nil {
				return err
			}
			result = out
			return nil
		},
		retry.Attempts(rpcAttempts),
		retry.Delay(rpcDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var status *retryableStatus
			var rpcErr *rpcError
			switch {
			case errors.As(err, &rpcErr):
				return false
			case errors.As(err, &status):
				return true
			default:
				return isTransportError(err)
			}
		}),
	)
	return result, err
}

type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func isTransportError(err error) bool {
	var te *transportError
	return errors.As(err, &te)
}

func doRPCRequest(body []byte, requireAuth bool) (json.RawMessage, error) {
	req, err := http.NewRequest(http.MethodPost, rpcEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requireAuth {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(rpcAuthToken))
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("POST %s: %w", rpcEndpoint, err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		return nil, &retryableStatus{status: resp.StatusCode}
	}

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("failed to decode RPC response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}

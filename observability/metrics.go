package observability

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RPCMetrics records JSON-RPC traffic. Methods are grouped by namespace, the
// prefix before the first underscore (auction_get -> auction).
type RPCMetrics struct {
	calls      *prometheus.CounterVec
	failures   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	rejections *prometheus.CounterVec
}

var (
	rpcOnce     sync.Once
	rpcRegistry *RPCMetrics
)

// RPC returns the lazily registered JSON-RPC metrics.
func RPC() *RPCMetrics {
	rpcOnce.Do(func() {
		rpcRegistry = &RPCMetrics{
			calls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "auctionchain",
				Subsystem: "rpc",
				Name:      "calls_total",
				Help:      "JSON-RPC calls by namespace, method and outcome.",
			}, []string{"namespace", "method", "outcome"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "auctionchain",
				Subsystem: "rpc",
				Name:      "failures_total",
				Help:      "Failed JSON-RPC calls by method and HTTP status.",
			}, []string{"method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "auctionchain",
				Subsystem: "rpc",
				Name:      "call_duration_seconds",
				Help:      "JSON-RPC handler latency.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"namespace", "method"}),
			rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "auctionchain",
				Subsystem: "rpc",
				Name:      "rejections_total",
				Help:      "Requests refused before dispatch, by reason.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(rpcRegistry.calls, rpcRegistry.failures, rpcRegistry.latency, rpcRegistry.rejections)
	})
	return rpcRegistry
}

func methodNamespace(method string) string {
	ns, _, ok := strings.Cut(method, "_")
	if !ok || ns == "" {
		return "unknown"
	}
	return ns
}

// ObserveCall records one dispatched call. status is the HTTP status written
// to the client.
func (m *RPCMetrics) ObserveCall(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	ns := methodNamespace(method)
	outcome := "ok"
	if status >= 400 {
		outcome = "error"
		m.failures.WithLabelValues(method, strconv.Itoa(status)).Inc()
	}
	m.calls.WithLabelValues(ns, method, outcome).Inc()
	m.latency.WithLabelValues(ns, method).Observe(elapsed.Seconds())
}

// RecordRejection counts a request refused by rate limiting ("rate_limit")
// or authentication ("unauthorized").
func (m *RPCMetrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.rejections.WithLabelValues(reason).Inc()
}

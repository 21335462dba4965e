package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type AuctionMetrics struct {
	txApplied     *prometheus.CounterVec
	txLatency     *prometheus.HistogramVec
	openAuctions  prometheus.Gauge
	bidsPlaced    prometheus.Counter
	closures      *prometheus.CounterVec
	streamClients prometheus.Gauge
}

var (
	auctionOnce     sync.Once
	auctionRegistry *AuctionMetrics
)

func Auction() *AuctionMetrics {
	auctionOnce.Do(func() {
		auctionRegistry = &AuctionMetrics{
			txApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "auction_tx_applied_total",
				Help: "Transactions processed by type and result.",
			}, []string{"type", "result"}),
			txLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "auction_tx_duration_seconds",
				Help:    "Time spent applying a transaction, including lock wait.",
				Buckets: prometheus.DefBuckets,
			}, []string{"type"}),
			openAuctions: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "auction_open_records",
				Help: "Auction records currently open.",
			}),
			bidsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "auction_bids_placed_total",
				Help: "Bids appended to auction records.",
			}),
			closures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "auction_closed_total",
				Help: "Auction records destroyed by outcome.",
			}, []string{"outcome"}),
			streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "auction_event_stream_subscribers",
				Help: "Active event stream subscriptions.",
			}),
		}
		prometheus.MustRegister(
			auctionRegistry.txApplied,
			auctionRegistry.txLatency,
			auctionRegistry.openAuctions,
			auctionRegistry.bidsPlaced,
			auctionRegistry.closures,
			auctionRegistry.streamClients,
		)
	})
	return auctionRegistry
}

// ObserveTx records the outcome of one transaction. An empty result label is
// reported as "ok".
func (m *AuctionMetrics) ObserveTx(txType, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if txType == "" {
		txType = "unknown"
	}
	if result == "" {
		result = "ok"
	}
	m.txApplied.WithLabelValues(txType, result).Inc()
	m.txLatency.WithLabelValues(txType).Observe(elapsed.Seconds())
}

func (m *AuctionMetrics) AuctionOpened() {
	if m == nil {
		return
	}
	m.openAuctions.Inc()
}

func (m *AuctionMetrics) BidPlaced() {
	if m == nil {
		return
	}
	m.bidsPlaced.Inc()
}

// AuctionClosed records a settlement or cancellation.
func (m *AuctionMetrics) AuctionClosed(outcome string) {
	if m == nil {
		return
	}
	m.openAuctions.Dec()
	m.closures.WithLabelValues(outcome).Inc()
}

func (m *AuctionMetrics) StreamSubscribed() {
	if m == nil {
		return
	}
	m.streamClients.Inc()
}

func (m *AuctionMetrics) StreamUnsubscribed() {
	if m == nil {
		return
	}
	m.streamClients.Dec()
}

package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// StreamMetrics tracks the committed event stream served to RPC clients.
type StreamMetrics struct {
	published *prometheus.CounterVec
	dropped   prometheus.Counter
	retained  prometheus.Gauge
}

var (
	streamOnce     sync.Once
	streamRegistry *StreamMetrics
)

// Events returns the process-wide event stream metrics.
func Events() *StreamMetrics {
	streamOnce.Do(func() {
		streamRegistry = &StreamMetrics{
			published: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "auctionchain",
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Committed events by emitting module and event name.",
			}, []string{"module", "name"}),
			dropped: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "auctionchain",
				Subsystem: "events",
				Name:      "subscriber_drops_total",
				Help:      "Events not delivered because a subscriber buffer was full.",
			}),
			retained: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "auctionchain",
				Subsystem: "events",
				Name:      "retained",
				Help:      "Events held in the replay history.",
			}),
		}
		prometheus.MustRegister(streamRegistry.published, streamRegistry.dropped, streamRegistry.retained)
	})
	return streamRegistry
}

// splitEventType maps "auction.bid_placed" to ("auction", "bid_placed").
func splitEventType(eventType string) (string, string) {
	normalized := strings.TrimSpace(strings.ToLower(eventType))
	if normalized == "" {
		return "unknown", "unknown"
	}
	module, name, ok := strings.Cut(normalized, ".")
	if !ok || name == "" {
		return "unknown", normalized
	}
	return module, name
}

func (m *StreamMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(splitEventType(eventType)).Inc()
}

func (m *StreamMetrics) RecordDrop() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

func (m *StreamMetrics) SetRetained(n int) {
	if m == nil {
		return
	}
	m.retained.Set(float64(n))
}

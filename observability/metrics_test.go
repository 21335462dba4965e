package observability

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCallGroupsByNamespace(t *testing.T) {
	m := RPC()
	before := testutil.ToFloat64(m.calls.WithLabelValues("auction", "auction_get", "error"))
	m.ObserveCall("auction_get", http.StatusNotFound, time.Millisecond)
	if got := testutil.ToFloat64(m.calls.WithLabelValues("auction", "auction_get", "error")); got != before+1 {
		t.Fatalf("expected error call to be counted, got %v", got-before)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("auction_get", "404")); got < 1 {
		t.Fatalf("expected failure by status, got %v", got)
	}
	if ns := methodNamespace("nonamespace"); ns != "unknown" {
		t.Fatalf("unexpected namespace %q", ns)
	}
}

func TestRecordEventSplitsModule(t *testing.T) {
	m := Events()
	before := testutil.ToFloat64(m.published.WithLabelValues("auction", "settled"))
	m.RecordEvent("Auction.Settled")
	if got := testutil.ToFloat64(m.published.WithLabelValues("auction", "settled")); got != before+1 {
		t.Fatalf("expected settled event to be counted")
	}
	module, name := splitEventType("orphan")
	if module != "unknown" || name != "orphan" {
		t.Fatalf("unexpected split %q/%q", module, name)
	}
}

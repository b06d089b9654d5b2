package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/health", "GET", "200"))
	RecordRequest("/health", "GET", "200", 0.01)
	RecordRequest("/health", "GET", "200", 0.02)
	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/health", "GET", "200")); got != before+2 {
		t.Fatalf("requests = %v, want %v", got, before+2)
	}
}

func TestRecordSimulations(t *testing.T) {
	before := testutil.ToFloat64(SimulationsTotal.WithLabelValues("RATE"))
	RecordSimulations("RATE", 7)
	if got := testutil.ToFloat64(SimulationsTotal.WithLabelValues("RATE")); got != before+7 {
		t.Fatalf("simulations = %v, want %v", got, before+7)
	}
}

func TestRecordComparison(t *testing.T) {
	before := testutil.ToFloat64(ComparisonRunsTotal.WithLabelValues("failure"))
	RecordComparison("failure", 1.5)
	if got := testutil.ToFloat64(ComparisonRunsTotal.WithLabelValues("failure")); got != before+1 {
		t.Fatalf("runs = %v, want %v", got, before+1)
	}
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveFetch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewUpstreamMetrics(reg)

	m.ObserveFetch("supabase", false, 0.12)
	m.ObserveFetch("supabase", false, 0.34)
	m.ObserveFetch("calcom", true, 1.5)

	if got := testutil.ToFloat64(m.fetchTotal.WithLabelValues("supabase", "ok")); got != 2 {
		t.Errorf("supabase ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.fetchTotal.WithLabelValues("calcom", "error")); got != 1 {
		t.Errorf("calcom error count = %v, want 1", got)
	}
}

func TestObserveFetchNilReceiver(t *testing.T) {
	var m *UpstreamMetrics
	// must not panic
	m.ObserveFetch("supabase", false, 0)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/HammerMeetNail/postcoach/internal/metrics"
)

func TestInstrument_LabelsByRoutePattern(t *testing.T) {
	m := metrics.New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/analyses/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	h := NewInstrument(m).Apply(mux)

	for _, id := range []string{"a", "b"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/analyses/"+id, nil))
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := promtestutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "GET /api/analyses/{id}", "200")); got != 2 {
		t.Errorf("expected 2 requests for the pattern, got %v", got)
	}
	if got := promtestutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("expected 1 unmatched request, got %v", got)
	}
	if n := promtestutil.CollectAndCount(m.HTTPRequestDuration); n != 2 {
		t.Errorf("expected 2 duration series, got %d", n)
	}
}

func TestInstrument_NilMetricsPassesThrough(t *testing.T) {
	rr := httptest.NewRecorder()
	NewInstrument(nil).Apply(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}

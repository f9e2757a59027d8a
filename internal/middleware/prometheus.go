package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/HammerMeetNail/postcoach/internal/metrics"
)

// Instrument records request counts, latency and response size. It must wrap
// the ServeMux directly so the matched route pattern is available after
// dispatch; unmatched requests are grouped under a single label.
type Instrument struct {
	metrics *metrics.Metrics
}

func NewInstrument(m *metrics.Metrics) *Instrument {
	return &Instrument{metrics: m}
}

func (i *Instrument) Apply(next http.Handler) http.Handler {
	if i.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := newResponseRecorder(w)

		next.ServeHTTP(recorder, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		labels := []string{r.Method, path, strconv.Itoa(recorder.statusCode)}
		i.metrics.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
		i.metrics.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		i.metrics.HTTPResponseSize.WithLabelValues(labels...).Observe(float64(recorder.size))
	})
}

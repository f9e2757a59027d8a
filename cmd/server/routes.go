package main

import (
	"net/http"

	"github.com/HammerMeetNail/postcoach/internal/handlers"
	"github.com/HammerMeetNail/postcoach/internal/logging"
	"github.com/HammerMeetNail/postcoach/internal/metrics"
	"github.com/HammerMeetNail/postcoach/internal/middleware"
)

type routerConfig struct {
	analysis    *handlers.AnalysisHandler
	health      *handlers.HealthHandler
	pages       *handlers.PageHandler
	metrics     *metrics.Metrics
	rateLimiter *middleware.RateLimiter
	logger      *logging.Logger

	staticDir      string
	secure         bool
	production     bool
	allowedOrigins []string
}

func newRouter(rc routerConfig) http.Handler {
	limit := func(h http.HandlerFunc) http.Handler {
		if rc.rateLimiter == nil {
			return h
		}
		return rc.rateLimiter.Middleware(h)
	}

	mux := http.NewServeMux()

	// Health endpoints (no rate limit)
	mux.HandleFunc("GET /health", rc.health.Health)
	mux.HandleFunc("GET /ready", rc.health.Ready)
	mux.HandleFunc("GET /live", rc.health.Live)
	if rc.metrics != nil {
		mux.Handle("GET /metrics", rc.metrics.Handler())
	}

	// Analysis endpoints
	mux.Handle("POST /api/analyze", limit(rc.analysis.Analyze))
	mux.Handle("POST /api/analyze/text", limit(rc.analysis.AnalyzeText))
	mux.HandleFunc("GET /api/analyses", rc.analysis.List)
	mux.HandleFunc("GET /api/analyses/{id}", rc.analysis.Get)

	// Static files
	fs := http.FileServer(http.Dir(rc.staticDir))
	mux.Handle("GET /static/", http.StripPrefix("/static/", fs))

	mux.HandleFunc("GET /{$}", rc.pages.Index)
	mux.HandleFunc("/", rc.pages.NotFound)

	// Build middleware chain (order matters: outermost last)
	var handler http.Handler = mux
	handler = middleware.NewInstrument(rc.metrics).Apply(handler)
	handler = middleware.NewCacheControl(rc.production).Apply(handler)
	handler = middleware.NewCompress().Apply(handler)
	handler = middleware.NewCORS(rc.allowedOrigins).Apply(handler)
	handler = middleware.NewSecurityHeaders(rc.secure).Apply(handler)
	handler = middleware.NewRequestLogger(rc.logger).Apply(handler)
	handler = middleware.NewRequestID().Apply(handler)
	return handler
}

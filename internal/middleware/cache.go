package middleware

import (
	"net/http"
	"strings"
)

// CacheControl adds cache headers based on the request path.
type CacheControl struct {
	production bool
}

// NewCacheControl creates the middleware. Outside production, CSS and JS are
// revalidated on every load so edits show up immediately.
func NewCacheControl(production bool) *CacheControl {
	return &CacheControl{production: production}
}

func (c *CacheControl) Apply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		switch {
		case strings.HasPrefix(path, "/static/"):
			c.setStaticCacheHeaders(w, path)

		case strings.HasPrefix(path, "/api/"), isOperationalPath(path):
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
			w.Header().Set("Pragma", "no-cache")

		case path == "/" || path == "":
			w.Header().Set("Cache-Control", "no-cache, must-revalidate")

		default:
			w.Header().Set("Cache-Control", "no-store")
		}

		next.ServeHTTP(w, r)
	})
}

func (c *CacheControl) setStaticCacheHeaders(w http.ResponseWriter, path string) {
	lowerPath := strings.ToLower(path)

	if isImmutableAsset(lowerPath) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		return
	}

	if strings.HasSuffix(lowerPath, ".css") || strings.HasSuffix(lowerPath, ".js") {
		if c.production {
			w.Header().Set("Cache-Control", "public, max-age=86400, must-revalidate")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
}

// isOperationalPath matches the probe and scrape endpoints.
func isOperationalPath(path string) bool {
	switch path {
	case "/health", "/ready", "/live", "/metrics":
		return true
	}
	return false
}

func isImmutableAsset(path string) bool {
	immutableExtensions := []string{
		".woff", ".woff2", ".ttf", ".otf",
		".jpg", ".jpeg", ".png", ".gif", ".webp", ".ico", ".svg",
	}

	for _, ext := range immutableExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

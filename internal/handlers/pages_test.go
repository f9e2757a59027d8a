package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HammerMeetNail/postcoach/internal/assets"
)

func newTestPageHandler(t *testing.T) *PageHandler {
	t.Helper()
	handler, err := NewPageHandler("../../web/templates", nil, 10<<20)
	if err != nil {
		t.Fatalf("failed to create page handler: %v", err)
	}
	return handler
}

func TestResolveTheme(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ocean", "ocean"},
		{"sunset", "sunset"},
		{"Forest", "forest"},
		{" purple ", "purple"},
		{"", "ocean"},
		{"neon", "ocean"},
	}
	for _, tt := range tests {
		if got := ResolveTheme(tt.in); got != tt.want {
			t.Errorf("ResolveTheme(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPageHandler_Index(t *testing.T) {
	handler := newTestPageHandler(t)

	tests := []struct {
		query string
		theme string
	}{
		{"", "ocean"},
		{"?theme=sunset", "sunset"},
		{"?theme=unknown", "ocean"},
	}
	for _, tt := range tests {
		t.Run("theme"+tt.query, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.Index(rr, httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))

			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
				t.Fatalf("unexpected content type %q", ct)
			}
			body := rr.Body.String()
			if !strings.Contains(body, `class="theme-`+tt.theme+`"`) {
				t.Errorf("expected body theme %s", tt.theme)
			}
			if !strings.Contains(body, `theme-button active" data-theme-key="`+tt.theme+`"`) {
				t.Errorf("expected %s button to be active", tt.theme)
			}
			if !strings.Contains(body, "Max 10MB") {
				t.Error("expected upload limit in page")
			}
			if !strings.Contains(body, `src="/static/js/app.js"`) {
				t.Error("expected app script reference")
			}
		})
	}
}

func TestPageHandler_IndexUsesManifest(t *testing.T) {
	webDir := t.TempDir()
	manifestDir := filepath.Join(webDir, "static", "dist")
	if err := os.MkdirAll(manifestDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data, _ := json.Marshal(map[string]string{"css/styles.css": "css/styles.1a2b.css"})
	if err := os.WriteFile(filepath.Join(manifestDir, "manifest.json"), data, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	manifest := assets.NewManifest(webDir)
	if err := manifest.Load(); err != nil {
		t.Fatalf("load manifest: %v", err)
	}

	handler, err := NewPageHandler("../../web/templates", manifest, 10<<20)
	if err != nil {
		t.Fatalf("failed to create page handler: %v", err)
	}

	rr := httptest.NewRecorder()
	handler.Index(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(rr.Body.String(), `href="/static/css/styles.1a2b.css"`) {
		t.Error("expected hashed stylesheet from manifest")
	}
}

func TestPageHandler_NotFound(t *testing.T) {
	handler := newTestPageHandler(t)

	t.Run("page", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.NotFound(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))

		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "Page not found") {
			t.Error("expected 404 page body")
		}
	})

	t.Run("api", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.NotFound(rr, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

		assertErrorResponse(t, rr, http.StatusNotFound, "Not found")
	})
}

func TestPageHandler_NewPageHandler_InvalidDir(t *testing.T) {
	_, err := NewPageHandler(filepath.Join(os.TempDir(), "nope"), nil, 10<<20)
	if err == nil {
		t.Fatal("expected error")
	}
}

package assets

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, webDir string, data []byte) {
	t.Helper()
	manifestDir := filepath.Join(webDir, "static", "dist")
	if err := os.MkdirAll(manifestDir, 0o755); err != nil {
		t.Fatalf("failed to create manifest dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(manifestDir, "manifest.json"), data, 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
}

func TestManifestLoadAndGet(t *testing.T) {
	dir := t.TempDir()
	content := map[string]string{
		"css/styles.css": "css/styles.abcd1234.css",
		"js/app.js":      "js/app.9876.js",
	}
	data, _ := json.Marshal(content)
	writeManifest(t, dir, data)

	m := NewManifest(dir)
	if err := m.Load(); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if got := m.GetCSS(); got != "/static/"+content["css/styles.css"] {
		t.Fatalf("unexpected css path: %s", got)
	}
	if got := m.GetAppJS(); got != "/static/"+content["js/app.js"] {
		t.Fatalf("unexpected app js path: %s", got)
	}
	if got := m.Get("missing.js"); got != "/static/missing.js" {
		t.Fatalf("expected fallback path, got %s", got)
	}
}

func TestManifestLoadMissingFile(t *testing.T) {
	m := NewManifest(t.TempDir())
	if err := m.Load(); err != nil {
		t.Fatalf("expected missing manifest to be handled, got %v", err)
	}

	if got := m.GetAppJS(); got != "/static/js/app.js" {
		t.Fatalf("expected fallback path for app.js, got %s", got)
	}
}

func TestManifestLoadInvalidJSONKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, []byte(`{"js/app.js":"js/app.1.js"}`))

	m := NewManifest(dir)
	if err := m.Load(); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	writeManifest(t, dir, []byte("{not-json"))
	if err := m.Load(); err == nil {
		t.Fatal("expected invalid JSON error")
	}
	if got := m.GetAppJS(); got != "/static/js/app.1.js" {
		t.Fatalf("expected previous manifest to stay in effect, got %s", got)
	}
}

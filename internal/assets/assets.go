package assets

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Manifest maps static asset paths to their content-hashed build outputs.
type Manifest struct {
	mu     sync.RWMutex
	assets map[string]string
	webDir string
}

func NewManifest(webDir string) *Manifest {
	return &Manifest{
		assets: make(map[string]string),
		webDir: webDir,
	}
}

// Load reads static/dist/manifest.json under the web directory. A missing
// manifest leaves the unhashed paths in place.
func (m *Manifest) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	manifestPath := filepath.Join(m.webDir, "static", "dist", "manifest.json")

	// #nosec G304 -- manifestPath is built from configuration, not user input
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			m.assets = make(map[string]string)
			return nil
		}
		return err
	}

	assets := make(map[string]string)
	if err := json.Unmarshal(data, &assets); err != nil {
		return err
	}
	m.assets = assets
	return nil
}

// Get returns the URL for an asset, preferring its hashed build output.
func (m *Manifest) Get(path string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if hashed, ok := m.assets[path]; ok {
		return "/static/" + hashed
	}
	return "/static/" + path
}

func (m *Manifest) GetCSS() string {
	return m.Get("css/styles.css")
}

func (m *Manifest) GetAppJS() string {
	return m.Get("js/app.js")
}

package handlers

import (
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/HammerMeetNail/postcoach/internal/assets"
)

// Theme is a colour scheme selectable on the upload page.
type Theme struct {
	Key  string
	Name string
}

var Themes = []Theme{
	{Key: "ocean", Name: "Ocean"},
	{Key: "sunset", Name: "Sunset"},
	{Key: "forest", Name: "Forest"},
	{Key: "purple", Name: "Purple"},
}

const DefaultTheme = "ocean"

// ResolveTheme returns key if it names a known theme, otherwise the default.
func ResolveTheme(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, t := range Themes {
		if t.Key == key {
			return key
		}
	}
	return DefaultTheme
}

type PageHandler struct {
	templates      *template.Template
	manifest       *assets.Manifest
	maxUploadBytes int64
}

func NewPageHandler(templatesDir string, manifest *assets.Manifest, maxUploadBytes int64) (*PageHandler, error) {
	templates, err := template.ParseGlob(filepath.Join(templatesDir, "*.html"))
	if err != nil {
		return nil, err
	}
	if manifest == nil {
		manifest = assets.NewManifest("")
	}

	return &PageHandler{
		templates:      templates,
		manifest:       manifest,
		maxUploadBytes: maxUploadBytes,
	}, nil
}

type PageData struct {
	Title          string
	Theme          string
	Themes         []Theme
	StylesURL      string
	ScriptURL      string
	MaxUploadBytes int64
	MaxUploadMB    int64
	AcceptTypes    string
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	data := PageData{
		Title:          "Content Analyzer",
		Theme:          ResolveTheme(r.URL.Query().Get("theme")),
		Themes:         Themes,
		StylesURL:      h.manifest.GetCSS(),
		ScriptURL:      h.manifest.GetAppJS(),
		MaxUploadBytes: h.maxUploadBytes,
		MaxUploadMB:    h.maxUploadBytes >> 20,
		AcceptTypes:    ".pdf,.jpg,.jpeg,.png",
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
	}
}

// NotFound renders the 404 page, or a JSON error under /api/.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if err := h.templates.ExecuteTemplate(w, "404.html", PageData{
		Title:     "Page not found",
		Theme:     DefaultTheme,
		StylesURL: h.manifest.GetCSS(),
	}); err != nil {
		http.Error(w, "Page not found", http.StatusNotFound)
	}
}

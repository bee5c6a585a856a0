package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/tabshelf/internal/drag"
	"github.com/hpungsan/tabshelf/internal/errors"
	"github.com/hpungsan/tabshelf/internal/surface"
	"github.com/hpungsan/tabshelf/internal/view"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "collections", "export"
}

// IndexPageData is the template data for the new-tab page and its fragments.
type IndexPageData struct {
	PageData
	Frame        surface.Frame
	OpenTabs     surface.OpenTabsView
	SidebarError string
	Now          time.Time
}

// CardData is what the card template draws.
type CardData struct {
	Card    *view.CardView
	Markers []drag.Marker
	Now     time.Time
}

// ExportPageData is the template data for the export preview.
type ExportPageData struct {
	PageData
	RenderedHTML template.HTML
	Count        int
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	logger    *log.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.Default()
	}
	funcMap := template.FuncMap{
		"formatTime":  formatTime,
		"deref":       deref,
		"markerClass": markerClass,
		"cardData": func(page IndexPageData, cv *view.CardView) CardData {
			return CardData{Card: cv, Markers: page.Frame.Markers[cv.Collection.ID], Now: page.Now}
		},
	}

	// Layout and shared partials form the base of every page
	base := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html", "partials.html"))

	pages := map[string]string{
		"index":  "index.html",
		"export": "export.html",
		"error":  "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(base.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
		logger:    logger,
	}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderBlock(w, http.StatusOK, name, "layout", data)
}

// renderBlock renders a specific named block from a page template.
// Fragment routes use it to redraw one region of the page.
func (r *Renderer) renderBlock(w http.ResponseWriter, status int, page, block string, data any) {
	t, ok := r.templates[page]
	if !ok {
		r.logger.Printf("[web] template %q not found", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		r.logger.Printf("[web] template block %q execution error: %v", block, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	sErr, ok := errors.As(err)
	if !ok {
		sErr = errors.NewInternal(err)
	}
	if sErr.Code == errors.ErrInternal {
		r.logger.Printf("[web] %s %s: %v", req.Method, req.URL.Path, err)
	}

	status := sErr.Status
	message := sErr.Message

	// API calls and explicit JSON requests
	if wantsJSON(req) {
		renderJSON(w, status, map[string]any{
			"error": map[string]any{
				"code":    string(sErr.Code),
				"message": message,
				"status":  status,
			},
		})
		return
	}

	// Fragment request: return an inline message
	if req.Header.Get("X-Fragment") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprintf(w, `<div class="error-message">%s</div>`, template.HTMLEscapeString(message))
		return
	}

	r.renderBlock(w, status, "error", "layout", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", status),
			Version: r.version,
		},
		StatusCode: status,
		Message:    message,
	})
}

func wantsJSON(req *http.Request) bool {
	return strings.HasPrefix(req.URL.Path, "/api/") || strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts markdown text to HTML using goldmark.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatTime formats a timestamp as "2006-01-02 15:04" UTC.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func markerClass(ms []drag.Marker) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = string(m)
	}
	return strings.Join(parts, " ")
}

// deref dereferences a string pointer, returning "" if nil.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

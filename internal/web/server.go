// Package web serves the new-tab page, its JSON API and the extension bridge.
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hpungsan/tabshelf/internal/config"
	"github.com/hpungsan/tabshelf/internal/surface"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Options configures the server beyond the session itself.
type Options struct {
	Version string
	// Bridge, when set, is mounted at /bridge for the companion extension.
	Bridge http.Handler
	Logger *log.Logger
	Now    func() time.Time
}

// NewServer creates and configures the HTTP server for the new-tab page.
func NewServer(sess *surface.Session, cfg *config.Config, opts Options) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port),
		Handler:           NewHandler(sess, cfg, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandler builds the router. Tests use it directly with httptest.
func NewHandler(sess *surface.Session, cfg *config.Config, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		log.Fatalf("failed to create template sub-FS: %v", err)
	}

	// Create sub-FS for static files (strip "static/" prefix)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("failed to create static sub-FS: %v", err)
	}

	h := &Handlers{
		sess:     sess,
		cfg:      cfg,
		renderer: NewRenderer(templateSub, opts.Version, opts.Logger),
		logger:   opts.Logger,
		now:      opts.Now,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	// The bridge is a long-lived websocket; it skips the security headers
	// and CORS, and checks origins itself.
	if opts.Bridge != nil {
		router.Method(http.MethodGet, "/bridge", opts.Bridge)
	}

	router.Group(func(r chi.Router) {
		r.Use(securityHeaders)

		r.Get("/", h.HandleIndex)
		r.Get("/collections", h.HandleGrid)
		r.Get("/open-tabs", h.HandleOpenTabs)
		r.Get("/status", h.HandleStatus)
		r.Get("/export", h.HandleExport)
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticSub)))
	})

	router.Route("/api", func(r chi.Router) {
		r.Use(corsHandler(cfg))

		r.Get("/view", h.APIView)
		r.Get("/open-tabs", h.APIOpenTabs)
		r.Get("/export", h.APIExport)

		r.Route("/collections", func(r chi.Router) {
			r.Get("/", h.APIListCollections)
			r.Post("/", h.APICreateCollection)
			r.Post("/save-open", h.APISaveOpenTabs)

			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", h.APIRenameCollection)
				r.Delete("/", h.APIDeleteCollection)
				r.Post("/open", h.APIOpenCollection)
				r.Post("/toggle", h.APIToggle)
				r.Post("/tabs", h.APIAddTab)
				r.Delete("/tabs", h.APIDeleteTab)
				r.Patch("/tabs", h.APIRenameTab)
			})
		})

		r.Post("/drag/start", h.APIDragStart)
		r.Post("/drag/over", h.APIDragOver)
		r.Post("/drag/leave", h.APIDragLeave)
		r.Post("/drag/end", h.APIDragEnd)
		r.Post("/drop", h.APIDrop)

		r.Post("/edit/begin", h.APIEditBegin)
		r.Post("/edit/commit", h.APIEditCommit)
		r.Post("/edit/escape", h.APIEditEscape)
	})

	return router
}

// corsHandler lets the companion extension call the API from its own origin.
func corsHandler(cfg *config.Config) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Fragment"},
		MaxAge:         300,
	})
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'; img-src * data:")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("[web] tabshelf running at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("[web] WARNING: server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("[web] shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

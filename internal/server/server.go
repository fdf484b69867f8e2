// Package server exposes the converter over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/nconklindev/tabula/internal/config"
	"github.com/nconklindev/tabula/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for conversions and saved files.
type Server struct {
	cfg    *config.Config
	store  *storage.Store
	router *chi.Mux
	server *http.Server
	now    func() time.Time
}

// New creates a Server. store may be nil, in which case the saved-file
// routes report an internal error.
func New(cfg *config.Config, store *storage.Store) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		router: chi.NewRouter(),
		now:    time.Now,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(Session)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/detect", s.handleDetect)
		r.Post("/convert", s.handleConvert)
		r.Post("/preview", s.handlePreview)
		r.Post("/chart", s.handleChart)

		r.Route("/files", func(r chi.Router) {
			r.Use(RequireUser)
			r.Get("/", s.handleListFiles)
			r.Post("/", s.handleSaveFile)
			r.Get("/{fileID}", s.handleDownloadFile)
			r.Delete("/{fileID}", s.handleDeleteFile)
		})
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

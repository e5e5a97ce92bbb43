package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/voyagen/iptvbrowser/internal/config"
	"github.com/voyagen/iptvbrowser/internal/metrics"
	"github.com/voyagen/iptvbrowser/internal/service"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds dependencies for the HTTP API.
type Server struct {
	browser *service.Browser
	store   Pinger // nil skips the store check in /api/health
	cfg     *config.Config
	log     logrus.FieldLogger
	router  chi.Router
}

// New creates a Server and registers routes.
func New(b *service.Browser, store Pinger, cfg *config.Config, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	srv := &Server{browser: b, store: store, cfg: cfg, log: log}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(withLogging(s.log))
	r.Use(middleware.Recoverer)
	r.Use(withCORS)

	r.Get("/metrics", metrics.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/state", s.handleState)
		r.Get("/sources", s.handleListSources)

		// Playlist
		r.Post("/playlist", s.handleLoadPlaylist)
		r.Delete("/error", s.handleDismissError)

		// Catalog
		r.Get("/channels", s.handleListChannels)
		r.Put("/search", s.handleSearch)
		r.Put("/filter", s.handleSetFilter)
		r.Get("/filters/{field}", s.handleFilterValues)
		r.Get("/languages", s.handleLanguages)

		// Selection and playback
		r.Post("/select", s.handleSelect)
		r.Get("/recent", s.handleRecent)
		r.Get("/playback", s.handlePlayback)
		r.Post("/playback/error", s.handlePlaybackError)
		r.Delete("/playback", s.handleStopPlayback)

		// Docs
		r.Get("/docs", handleSwaggerUI)
		r.Get("/docs/openapi.yaml", handleOpenAPISpec)
	})

	s.router = r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.cfg.ServerPort
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.cfg.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Error("server shutdown")
		}
	}()

	s.log.WithField("addr", addr).Info("listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

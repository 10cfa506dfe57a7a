// Package web provides the HTTP server and handlers for reading exposure CSVs.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/exposures/internal/config"
	"github.com/JonMunkholm/exposures/internal/web/middleware"
)

// contentSecurityPolicy allows the page's own inline form script and nothing external.
const contentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:"

// Server is the HTTP server for the exposure reader.
type Server struct {
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	reads   *ReadLimiter
	closers []func()
}

// NewServer creates a Server from configuration.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
		reads:  NewReadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newLimiter(s.cfg.Rate.RequestsPerMinute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)

	s.router.Group(func(r chi.Router) {
		s.useUploadLimit(r)
		r.Post("/upload", s.handleUploadPage)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/template", s.handleDownloadTemplate)

		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(s.cfg.Security))
			s.useUploadLimit(r)
			r.Post("/exposures", s.handleReadExposures)
		})
	})
}

// useUploadLimit adds the stricter per-IP limit for routes that read files.
func (s *Server) useUploadLimit(r chi.Router) {
	if s.cfg.Rate.Enabled && s.cfg.Rate.UploadLimit > 0 {
		r.Use(s.newLimiter(s.cfg.Rate.UploadLimit).middleware)
	}
}

func (s *Server) newLimiter(perMinute int) *rateLimiter {
	rl := newRateLimiter(perMinute, time.Minute)
	s.closers = append(s.closers, rl.Close)
	return rl
}

// Start listens on the configured address. It returns nil after Shutdown.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// WaitForReads blocks until in-flight reads finish or ctx is done.
func (s *Server) WaitForReads(ctx context.Context) error {
	return s.reads.WaitForDrain(ctx)
}

// ReadStatus reports read limiter usage.
func (s *Server) ReadStatus() ReadLimiterStatus {
	return s.reads.Status()
}

// Shutdown gracefully stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, closeFn := range s.closers {
		closeFn()
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", contentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}

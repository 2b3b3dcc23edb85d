// Package server exposes script synthesis, validation, page capture and
// script execution over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formscript/api/schemas"
	"github.com/xkilldash9x/formscript/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Pinger is satisfied by the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators behind the endpoints. Fetcher, Runner and
// Database may be nil; the matching endpoints then answer 503 and health
// reports the service as disabled. Without a Vault, generation uses the
// profile exactly as supplied.
type Deps struct {
	Synthesizer schemas.Synthesizer
	Fetcher     schemas.PageFetcher
	Runner      schemas.ScriptRunner
	Database    Pinger
	Vault       schemas.CredentialVault
	LLMEnabled  bool
}

// Server is the HTTP boundary.
type Server struct {
	cfg     config.ServerConfig
	deps    Deps
	logger  *zap.Logger
	router  *chi.Mux
	version string
}

// New builds the router. version is reported by /health.
func New(cfg config.ServerConfig, deps Deps, logger *zap.Logger, version string) *Server {
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		logger:  logger.Named("server"),
		version: version,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(newCompressor().Handler)

	r.Get("/health", s.handleHealth)

	r.Route("/dsl", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Post("/validate", s.handleValidate)
		r.Post("/template", s.handleTemplate)
	})
	r.Get("/page/analyze", s.handleAnalyze)
	r.Post("/rpa/run", s.handleRun)

	return r
}

// newCompressor compresses JSON replies with brotli or gzip, whichever the
// client prefers.
func newCompressor() *middleware.Compressor {
	c := middleware.NewCompressor(5, "application/json")
	c.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return c
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// within the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	<-errCh
	s.logger.Info("Server stopped")
	return nil
}

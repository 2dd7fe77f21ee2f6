// Package server exposes the enhancement pipeline over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/wtthornton/LocalMCP/internal/cache"
	"github.com/wtthornton/LocalMCP/internal/enhance"
)

// maxBodyBytes bounds request bodies; prompts are capped well below this.
const maxBodyBytes = 1 << 20

// Enhancer runs one enhancement. pipeline.Orchestrator satisfies it.
type Enhancer interface {
	Enhance(ctx context.Context, prompt string, hints enhance.Hints, opts enhance.Options) (*enhance.EnhancedResponse, error)
}

// Config configures a Server. Cache may be nil when caching is disabled.
type Config struct {
	Port           int
	Version        string
	Enhancer       Enhancer
	Cache          *cache.Cache
	Capabilities   []string
	UseAI          bool
	AllowedOrigins []string
}

type Server struct {
	enhancer     Enhancer
	cache        *cache.Cache
	version      string
	capabilities []string
	useAI        bool
	origins      map[string]struct{}
	server       *http.Server
}

// New creates a server listening on cfg.Port once started. Without explicit origins,
// only local pages on the same port may call it from a browser.
func New(cfg Config) (*Server, error) {
	if cfg.Enhancer == nil {
		return nil, errors.New("server: enhancer is required")
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{
			fmt.Sprintf("http://localhost:%d", cfg.Port),
			fmt.Sprintf("http://127.0.0.1:%d", cfg.Port),
		}
	}

	s := &Server{
		enhancer:     cfg.Enhancer,
		cache:        cfg.Cache,
		version:      cfg.Version,
		capabilities: cfg.Capabilities,
		useAI:        cfg.UseAI,
		origins:      make(map[string]struct{}, len(origins)),
	}
	for _, o := range origins {
		s.origins[o] = struct{}{}
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.registerRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves in the background. Listen errors are sent to errChan.
func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("API server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

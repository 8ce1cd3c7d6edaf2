// Package server exposes the panel builder over HTTP.
//
// Every request is an independent classification pass against a table from
// the shared, read-only catalog. The only mutable state is the request
// counters reported on /metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/kylerisse/upsgraph/pkg/config"
	"github.com/kylerisse/upsgraph/pkg/panel"
	"github.com/kylerisse/upsgraph/pkg/perfdata"
)

// Server serves panel and rrdtool directives for submitted metric batches.
type Server struct {
	catalog      *panel.Catalog
	defaultTable string
	resolver     func(path string) perfdata.Resolver
	rrdPath      string
	listenPort   string
	limiter      *rate.Limiter
	logger       *logrus.Logger
	stats        *buildStats

	mu   sync.Mutex
	srv  *http.Server
	addr net.Addr
	wg   sync.WaitGroup
}

// NewServer creates a Server from cfg using the tables in catalog.
// The configured default table must exist in the catalog.
func NewServer(cfg *config.Config, catalog *panel.Catalog, logger *logrus.Logger) (*Server, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog must not be nil")
	}
	if _, err := catalog.Get(cfg.Tables.Default); err != nil {
		return nil, fmt.Errorf("default table: %w", err)
	}

	return &Server{
		catalog:      catalog,
		defaultTable: cfg.Tables.Default,
		resolver:     cfg.Resolver,
		rrdPath:      cfg.RRD.Path,
		listenPort:   cfg.Server.ListenPort,
		limiter:      rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst),
		logger:       logger,
		stats:        newBuildStats(),
	}, nil
}

// Start binds the listen port and begins serving the API in the
// background. A port that cannot be bound is returned as an error.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	srv := s.newHTTPServer()
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on port %v: %w", s.listenPort, err)
	}
	s.srv = srv
	s.addr = ln.Addr()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Infof("Starting API server on %v...", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("API server failed: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop gracefully shuts the API server down, waiting for in-flight
// requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	err := srv.Shutdown(ctx)
	s.wg.Wait()
	s.logger.Info("API server stopped.")
	return err
}

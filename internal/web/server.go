package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vitos/breakout_monitor/internal/domain"
	"go.uber.org/zap"
)

// WatchlistSource exposes the monitor's current watchlist.
type WatchlistSource interface {
	Watchlist() []domain.WatchlistEntry
}

type Server struct {
	router    *http.ServeMux
	server    *http.Server
	watchlist WatchlistSource
	journal   domain.AlertJournal
	gatherer  prometheus.Gatherer
	logger    *zap.Logger
}

func NewServer(
	port int,
	watchlist WatchlistSource,
	journal domain.AlertJournal,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:    http.NewServeMux(),
		watchlist: watchlist,
		journal:   journal,
		gatherer:  gatherer,
		logger:    logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	// Keepalive
	s.router.HandleFunc("GET /{$}", s.handleLanding)
	s.router.HandleFunc("GET /health", s.handleHealth)

	// Metrics
	if s.gatherer != nil {
		s.router.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	// JSON
	s.router.HandleFunc("GET /api/watchlist", s.handleWatchlistJSON)
	s.router.HandleFunc("GET /api/alerts", s.handleAlertsJSON)
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

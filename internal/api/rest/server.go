package rest

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/davidleathers/laborboard/internal/infrastructure/config"
	"github.com/davidleathers/laborboard/internal/metrics"
)

// Server exposes probes, metrics and the moderation endpoints
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

// NewRouter builds the HTTP routes.
func NewRouter(health *HealthService, handlers *Handlers, gatherer prometheus.Gatherer, m *metrics.Registry, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.LivenessHandler())
	mux.HandleFunc("GET /readyz", health.ReadinessHandler())
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	if handlers != nil {
		mux.HandleFunc("POST /v1/moderation/dry-run", handlers.dryRun)
		mux.HandleFunc("GET /v1/moderation/stats", handlers.stats)
		mux.HandleFunc("GET /v1/moderation/suspicious", handlers.suspicious)
	}

	return chain(mux, recoveryMiddleware(logger), loggingMiddleware(logger), metricsMiddleware(m))
}

// NewServer creates a server listening on cfg.Port
func NewServer(cfg config.ServerConfig, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

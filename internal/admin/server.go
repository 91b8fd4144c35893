// Package admin serves the dashboard REST API: order management, product
// CRUD, CSV export, analytics, and the Prometheus scrape endpoint. It
// binds on a separate port from the fulfillment webhook so the two
// surfaces can be firewalled independently.
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shopbot/internal/domain"
	"shopbot/internal/metrics"
)

type Config struct {
	Host    string
	Port    int
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

type Server struct {
	host    string
	port    int
	catalog domain.Catalog
	bus     domain.EventBus
	metrics *metrics.Metrics
	logger  *slog.Logger
	server  *http.Server
}

func NewServer(cfg Config, catalog domain.Catalog, bus domain.EventBus) *Server {
	if cfg.Port == 0 {
		cfg.Port = 8081
	}
	return &Server{
		host:    cfg.Host,
		port:    cfg.Port,
		catalog: catalog,
		bus:     bus,
		metrics: cfg.Metrics,
		logger:  cfg.Logger.With("component", "admin"),
	}
}

// Router builds the chi router. Exposed for httptest.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		writeJSON(rw, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/orders", s.listOrders)
		r.Get("/orders/export", s.exportOrders)
		r.Put("/orders/{number}/status", s.updateOrderStatus)

		r.Get("/menu", s.listProducts)
		r.Post("/menu", s.createProduct)
		r.Put("/menu/{id}", s.updateProduct)
		r.Delete("/menu/{id}", s.deleteProduct)

		r.Get("/analytics/sales-by-date", s.salesByDate)
		r.Get("/analytics/total-revenue", s.totalRevenue)
		r.Get("/analytics/loyal-customers", s.loyalCustomers)
	})
	return r
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("admin server starting", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("admin server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("admin server: %w", err)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(rw, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, msg string) {
	writeJSON(rw, status, map[string]string{"error": msg})
}

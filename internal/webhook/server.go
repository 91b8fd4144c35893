// Package webhook serves the NLU fulfillment endpoint. Every request gets
// an HTTP 200 with a usable reply; failures upstream of the dispatcher
// (bad signature, malformed JSON) are the only rejections.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"shopbot/internal/domain"
	"shopbot/internal/metrics"
)

// Dispatcher is the part of the intent dispatcher the server needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, evt domain.IntentEvent) *domain.Reply
}

type Config struct {
	Host    string
	Port    int
	Path    string // fulfillment URL path (default: /webhook)
	Secret  string // HMAC secret for verifying request signatures
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

type Server struct {
	host       string
	port       int
	path       string
	secret     string
	dispatcher Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	server     *http.Server
}

func NewServer(cfg Config, d Dispatcher) *Server {
	if cfg.Path == "" {
		cfg.Path = "/webhook"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	return &Server{
		host:       cfg.Host,
		port:       cfg.Port,
		path:       cfg.Path,
		secret:     cfg.Secret,
		dispatcher: d,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.With("component", "webhook"),
	}
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleFulfillment)
	mux.HandleFunc("/", s.handleHealth)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("webhook server starting", "addr", s.server.Addr, "path", s.path)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("webhook server: %w", err)
	}
}

// Handler exposes the fulfillment handler for tests.
func (s *Server) Handler() http.HandlerFunc { return s.handleFulfillment }

func (s *Server) handleFulfillment(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.count("method_not_allowed")
		http.Error(rw, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB max
	if err != nil {
		s.count("bad_request")
		http.Error(rw, "Bad Request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if s.secret != "" {
		sig := r.Header.Get("X-Signature-256")
		if sig == "" {
			s.count("unauthorized")
			http.Error(rw, "Missing signature", http.StatusUnauthorized)
			return
		}
		if !verifyHMAC(body, s.secret, sig) {
			s.count("forbidden")
			http.Error(rw, "Invalid signature", http.StatusForbidden)
			return
		}
	}

	req, err := decodeRequest(body)
	if err != nil {
		s.count("bad_request")
		http.Error(rw, "Invalid JSON", http.StatusBadRequest)
		return
	}

	evt := req.event()
	s.logger.Info("fulfillment received",
		"intent", evt.Intent,
		"session", evt.SessionID,
		"query_len", len(evt.QueryText),
	)

	reply := s.dispatcher.Dispatch(r.Context(), evt)
	s.count("ok")

	rw.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(encodeReply(reply)); err != nil {
		s.logger.Error("encoding response failed", "err", err)
	}
}

func (s *Server) handleHealth(rw http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(rw, r)
		return
	}
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(rw, "shopbot is up")
}

func (s *Server) count(outcome string) {
	if s.metrics != nil {
		s.metrics.WebhookRequests.WithLabelValues(outcome).Inc()
	}
}

// verifyHMAC checks the HMAC-SHA256 signature of the body.
func verifyHMAC(body []byte, secret, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

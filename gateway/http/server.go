// Package http serves the chatbot's HTTP API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/aggregation"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/config"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/errors"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/graphql"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/history"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/metric"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/pipeline"
)

// maxRequestSize bounds request bodies on every API route.
const maxRequestSize = 1 << 20

// Server is the HTTP gateway in front of the query pipeline.
type Server struct {
	cfg      config.ServerConfig
	pipeline *pipeline.Pipeline
	composer *graphql.Composer
	sessions *history.Store
	registry *metric.MetricsRegistry
	logger   *slog.Logger

	// Aggregation panel wiring, set via ConfigureAggregations.
	builder *graphql.Builder
	tabs    []aggregation.Tab
	anchor  *aggregation.AnchorConfig

	httpServer *http.Server
}

// ConfigureAggregations enables the /api/aggregations route. tabs and anchor
// come from the portal's filter-panel configuration.
func (s *Server) ConfigureAggregations(builder *graphql.Builder, tabs []aggregation.Tab, anchor *aggregation.AnchorConfig) {
	s.builder = builder
	s.tabs = tabs
	s.anchor = anchor
}

// NewServer wires the gateway. registry and sessions may be nil; the
// corresponding routes degrade gracefully.
func NewServer(cfg config.ServerConfig, p *pipeline.Pipeline, composer *graphql.Composer, sessions *history.Store, registry *metric.MetricsRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		pipeline: p,
		composer: composer,
		sessions: sessions,
		registry: registry,
		logger:   logger.With("component", "HTTPGateway"),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Routes(),
		ReadTimeout:  cfg.ReadTimeout.Std(),
		WriteTimeout: cfg.WriteTimeout.Std(),
	}
	return s
}

// Routes builds the gateway's route table.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/query", s.route(http.MethodPost, s.handleQuery))
	mux.HandleFunc("/api/execute", s.route(http.MethodPost, s.handleExecute))
	mux.HandleFunc("/api/aggregations", s.route(http.MethodPost, s.handleAggregations))
	mux.HandleFunc("/api/health", s.route(http.MethodGet, s.handleHealth))
	mux.HandleFunc("/api/sessions", s.route(http.MethodGet, s.handleSessions))
	mux.HandleFunc("/api/sessions/", s.route(http.MethodGet, s.handleSession))
	mux.HandleFunc("/api/chat", s.handleChat)

	mux.Handle("/playground", playground.Handler("Guppy GraphQL", "/api/execute"))

	if s.registry != nil {
		mux.Handle("/metrics", s.registry.Handler())
	}

	return mux
}

// ListenAndServe runs the server until the context is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http gateway listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "HTTPGateway", "ListenAndServe", "serve")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTPGateway", "ListenAndServe", "shutdown")
	}
	return nil
}

// route wraps a handler with the cross-cutting pieces every API route needs:
// request ID propagation, CORS, method filtering, body limits, and metrics.
func (s *Server) route(method string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := requestIDFor(r)
		w.Header().Set("X-Request-ID", requestID)

		s.applyCORS(w, r)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if r.Method != method {
			s.writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", r.Method))
			s.countRequest(r.URL.Path, "error", start)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler(rec, r)

		status := "success"
		if rec.status >= 400 {
			status = "error"
		}
		s.countRequest(r.URL.Path, status, start)
	}
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestIDFor extracts the caller's request ID or generates a fresh one.
func requestIDFor(r *http.Request) string {
	if reqID := r.Header.Get("X-Request-ID"); reqID != "" {
		return reqID
	}
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")

	allowed := false
	for _, o := range s.cfg.CORSOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}

	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	} else {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func (s *Server) countRequest(route, status string, start time.Time) {
	if s.registry == nil {
		return
	}
	m := s.registry.CoreMetrics()
	m.RequestsTotal.WithLabelValues(route, status).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
}

// statusFor maps classified errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, errors.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.IsTransient(err):
		if strings.Contains(err.Error(), "timeout") {
			return http.StatusGatewayTimeout
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// sanitizeError keeps internal details out of client responses. The full
// error goes to the log, not the wire.
func sanitizeError(err error) string {
	switch {
	case err == nil:
		return "internal server error"
	case stderrors.Is(err, errors.ErrSessionNotFound):
		return "session not found"
	case errors.IsInvalid(err):
		return "invalid request"
	case errors.IsTransient(err):
		if strings.Contains(err.Error(), "timeout") {
			return "request timeout"
		}
		return "service temporarily unavailable"
	default:
		return "internal server error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	data, _ := json.Marshal(map[string]any{"error": message, "status": status})
	_, _ = w.Write(data)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("response write failed", "error", err)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	return json.NewDecoder(r.Body).Decode(dst)
}

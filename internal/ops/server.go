// Package ops serves liveness and session counters over HTTP.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/quizbot/core/buildinfo"
	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/telegram/middleware"
	"github.com/m3rciful/quizbot/core/telegram/sender"
	"github.com/m3rciful/quizbot/internal/quiz"
)

const component = "ops"

// Config enables the ops listener. An empty Listen disables it.
type Config struct {
	Listen string `yaml:"listen" envconfig:"OPS_LISTEN"`
}

// StatsSource reports live session counters.
type StatsSource interface {
	Stats() quiz.Stats
}

// Server is the ops HTTP endpoint.
type Server struct {
	stats   StatsSource
	traffic func() middleware.Totals
	outbox  func() sender.Stats
	started time.Time
	srv     *http.Server
}

// Option adds a section to /stats.
type Option func(*Server)

// WithTraffic reports update and reply counters, usually middleware.Traffic.
func WithTraffic(fn func() middleware.Totals) Option {
	return func(s *Server) { s.traffic = fn }
}

// WithOutbox reports the outbound dispatcher counters.
func WithOutbox(fn func() sender.Stats) Option {
	return func(s *Server) { s.outbox = fn }
}

// New builds a Server for cfg.Listen.
func New(cfg Config, stats StatsSource, opts ...Option) *Server {
	s := &Server{stats: stats, started: time.Now()}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the router: GET /health and GET /stats.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Get("/stats", s.handleStats)
	return r
}

type statsResponse struct {
	quiz.Stats
	Traffic       *middleware.Totals `json:"traffic,omitempty"`
	Outbox        *sender.Stats      `json:"outbox,omitempty"`
	Version       string             `json:"version"`
	Commit        string             `json:"commit"`
	UptimeSeconds int64              `json:"uptime_seconds"`
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	resp := statsResponse{
		Version:       buildinfo.Version,
		Commit:        buildinfo.Commit,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}
	if s.stats != nil {
		resp.Stats = s.stats.Stats()
	}
	if s.traffic != nil {
		t := s.traffic()
		resp.Traffic = &t
	}
	if s.outbox != nil {
		o := s.outbox()
		resp.Outbox = &o
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Start binds the listener and serves in the background. Bind errors are
// returned; serve errors after that are logged.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	logger.Info(ctx, component, "listen", slog.String("listen", ln.Addr().String()))
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, component, "serve", slog.String("err", err.Error()))
		}
	}()
	return nil
}

// Shutdown stops the listener, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/wippyai/ledhost/dispatch"
	"github.com/wippyai/ledhost/led"
)

// Reporter provides the dispatcher view. *dispatch.Dispatcher implements it.
type Reporter interface {
	Snapshot() dispatch.Snapshot
}

// FrameSource provides the last latched strip frame. The strip drivers
// implement it.
type FrameSource interface {
	Frame() []led.Color
}

// Config holds status server configuration
type Config struct {
	Listen string
}

// Server is the read-only HTTP status surface.
type Server struct {
	reporter  Reporter
	frames    FrameSource
	logger    *zap.Logger
	server    *http.Server
	startedAt time.Time
	config    Config
}

// HealthzResponse is the body of GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// FrameResponse is the body of GET /frame.
type FrameResponse struct {
	Colors []string `json:"colors"`
}

// New creates a status server. frames may be nil when the sink has no
// local strip.
func New(config Config, reporter Reporter, frames FrameSource, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		config:    config,
		reporter:  reporter,
		frames:    frames,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("status listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:      s.setupRoutes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("status server starting", zap.String("listen", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("status server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("status shutdown: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("status server: %w", err)
	}
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/status", s.handleStatus)
	r.Get("/frame", s.handleFrame)

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.reporter.Snapshot())
}

func (s *Server) handleFrame(w http.ResponseWriter, _ *http.Request) {
	if s.frames == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no local strip"})
		return
	}
	frame := s.frames.Frame()
	resp := FrameResponse{Colors: make([]string, len(frame))}
	for i, c := range frame {
		resp.Colors[i] = c.Hex()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

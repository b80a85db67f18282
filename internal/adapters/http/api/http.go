// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	corslib "github.com/rs/cors"

	"github.com/okian/touchdown/internal/adapters/http/swagger"
	service "github.com/okian/touchdown/internal/app"
	"github.com/okian/touchdown/internal/domain/model"
	"github.com/okian/touchdown/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// defaultMaxBodyBytes bounds a submitted feed document.
const defaultMaxBodyBytes = 16 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	StatsProvider

	// Ingest runs one feed document through the pipeline synchronously.
	Ingest(ctx context.Context, gameID string, doc []byte, roster []model.RosterEntry) (*service.GameResult, error)

	// RunCycle polls every in-progress game once.
	RunCycle(ctx context.Context) (*service.CycleReport, error)
	LastCycle() *service.CycleReport
}

// Server wires HTTP routes for the alert API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	feedHandler   *FeedHandler
	cyclesHandler *CyclesHandler

	hub          http.Handler
	corsOrigins  []string
	maxBodyBytes int64
	logger       logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithHub mounts the websocket notification stream at /ws.
func WithHub(h http.Handler) Option {
	return func(s *Server) {
		s.hub = h
	}
}

// WithCORSOrigins sets the allowed browser origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		corsOrigins:  []string{"*"},
		maxBodyBytes: defaultMaxBodyBytes,
		logger:       logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.feedHandler = NewFeedHandler(deps, s.maxBodyBytes)
	s.cyclesHandler = NewCyclesHandler(deps)
	return s
}

// Router builds the chi router with middleware and every route attached.
func (s *Server) Router(ctx context.Context) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(RequestLogger(s.logger))
	r.Use(corslib.New(corslib.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
	}).Handler)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)
	r.Post("/games/{gameID}/feed", s.feedHandler.HandlePostFeed)
	r.Post("/cycles", s.cyclesHandler.HandleRunCycle)
	r.Get("/cycles/last", s.cyclesHandler.HandleLastCycle)
	if s.hub != nil {
		r.Handle("/ws", s.hub)
	}
	swagger.Register(ctx, r)

	return r
}

// HTTPServer wraps the router in an http.Server bound to addr.
func (s *Server) HTTPServer(ctx context.Context, addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(ctx),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/flux"
	"github.com/aretw0/flux/internal/logging"
	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/middleware"
	"github.com/aretw0/flux/pkg/registry"
	"github.com/aretw0/flux/pkg/session"
)

// Sessions is the session surface served over HTTP.
type Sessions interface {
	List(ctx context.Context) ([]string, error)
	Open(ctx context.Context, sessionID string) (*session.Session, error)
	State(ctx context.Context, sessionID string) (*domain.State, error)
	Dispatch(ctx context.Context, sessionID string, action domain.Action) (*domain.State, error)
	History(ctx context.Context, sessionID string) ([]middleware.Entry, error)
	Delete(ctx context.Context, sessionID string) error
}

// DefaultMaxBodySize caps dispatch request bodies.
const DefaultMaxBodySize = 4096

// Server holds the handlers.
type Server struct {
	Sessions Sessions
	Streams  *StreamManager
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	maxBody  int64
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGatherer serves the given registry on /metrics instead of the default one.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithMaxBodySize overrides DefaultMaxBodySize. Non-positive values are ignored.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// DispatchRequest is the body of POST /sessions/{id}/dispatch.
type DispatchRequest struct {
	Type    domain.ActionType `json:"type"`
	Payload domain.Payload    `json:"payload,omitempty"`
}

// StateResponse carries a session tree.
type StateResponse struct {
	SessionID string        `json:"session_id"`
	State     *domain.State `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer creates the server without routing.
func NewServer(sessions Sessions, opts ...Option) *Server {
	s := &Server{
		Sessions: sessions,
		logger:   logging.NewNop(),
		gatherer: prometheus.DefaultGatherer,
		maxBody:  DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates the HTTP handler for the session manager.
func NewHandler(sessions Sessions, opts ...Option) http.Handler {
	return NewServer(sessions, opts...).Routes()
}

// Routes mounts every handler on a chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/state", s.GetState)
			r.Post("/dispatch", s.Dispatch)
			r.Get("/history", s.GetHistory)
			r.Get("/events", s.SubscribeEvents)
			r.Delete("/", s.DeleteSession)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "flux-http",
		"version": flux.Version,
	})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetState handles GET /sessions/{id}/state.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := s.Sessions.State(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StateResponse{SessionID: id, State: state})
}

// Dispatch handles POST /sessions/{id}/dispatch. The session is created on first use.
func (s *Server) Dispatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	var body DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			s.logger.Warn("Dispatch: request body too large", "session_id", id, "limit", tooLarge.Limit)
			return
		}
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		s.logger.Warn("Dispatch: invalid request body", "session_id", id, "err", err)
		return
	}
	if body.Type == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing action type"})
		return
	}

	if err := s.watch(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	state, err := s.Sessions.Dispatch(r.Context(), id, domain.Action{Type: body.Type, Payload: body.Payload})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StateResponse{SessionID: id, State: state})
}

// GetHistory handles GET /sessions/{id}/history.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.Sessions.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if history == nil {
		history = []middleware.Entry{}
	}
	s.writeJSON(w, http.StatusOK, history)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Streams.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, registry.ErrInvalidEffect), errors.Is(err, domain.ErrUnhandledEffect):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: fmt.Sprint(err)})
}

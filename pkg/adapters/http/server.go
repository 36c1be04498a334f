package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/portico"
	"github.com/aretw0/portico/pkg/domain"
)

// System defines the subset of portico.System served over HTTP.
type System interface {
	Travel(ctx context.Context, dest domain.PartitionKey, portalID int) (*portico.Transition, error)
	EnterByID(ctx context.Context, id int) (*portico.Transition, error)
	Current() *portico.Transition
	InProgress() bool
	State() domain.TransitionState
	ActivePartition() domain.PartitionKey
	SetActivationAllowed(allowed bool)
	ActivationAllowed() bool
	Validate(ctx context.Context, checkDisconnected bool) (*domain.ValidationReport, error)
	Inspect(ctx context.Context) ([]domain.PartitionSpec, error)
	Watch(ctx context.Context) (<-chan string, error)
	OnTransitionStart(fn func(*portico.Transition)) (remove func())
	OnTransitionFinish(fn func(*portico.Transition)) (remove func())
}

// Server serves the transition control and validation API.
type Server struct {
	System  System
	Streams *StreamManager
	logger  *slog.Logger

	mu     sync.RWMutex
	report *domain.ValidationReport
}

// Option configures the handler.
type Option func(*handlerConfig)

type handlerConfig struct {
	metrics http.Handler
	logger  *slog.Logger
}

// WithMetrics mounts a metrics handler (e.g. promhttp) on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(c *handlerConfig) {
		c.metrics = h
	}
}

// WithLogger configures a logger for request handling.
func WithLogger(logger *slog.Logger) Option {
	return func(c *handlerConfig) {
		c.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the system.
// Transition start and finish are broadcast to SSE subscribers of the "transitions" topic.
func NewHandler(sys System, opts ...Option) http.Handler {
	cfg := handlerConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	server := &Server{
		System:  sys,
		Streams: NewStreamManager(),
		logger:  cfg.logger,
	}
	sys.OnTransitionStart(func(t *portico.Transition) {
		server.broadcastTransition("start", t)
	})
	sys.OnTransitionFinish(func(t *portico.Transition) {
		server.broadcastTransition("finish", t)
	})

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/partitions", server.GetPartitions)
	r.Post("/transitions", server.BeginTransition)
	r.Get("/transitions/current", server.GetCurrentTransition)
	r.Get("/gate", server.GetGate)
	r.Put("/gate", server.SetGate)
	r.Post("/validate", server.Validate)
	r.Get("/report", server.GetReport)
	r.Get("/events", server.SubscribeEvents)
	if cfg.metrics != nil {
		r.Handle("/metrics", cfg.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TransitionRequest is the body of POST /transitions.
// Either Partition (with PortalID) or EnterPortal must be set.
type TransitionRequest struct {
	Partition   string `json:"partition"`
	PortalID    int    `json:"portal_id"`
	EnterPortal *int   `json:"enter_portal,omitempty"`
}

// TransitionStatus describes the controller and its latest transition.
type TransitionStatus struct {
	InProgress      bool                      `json:"in_progress"`
	State           domain.TransitionState    `json:"state"`
	ActivePartition domain.PartitionKey       `json:"active_partition"`
	Request         *domain.TransitionRequest `json:"request,omitempty"`
	Phase           domain.TransitionState    `json:"phase,omitempty"`
	Portal          *domain.Destination       `json:"portal,omitempty"`
	Error           string                    `json:"error,omitempty"`
}

// GateStatus is the body of GET and PUT /gate.
type GateStatus struct {
	Allowed bool `json:"allowed"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "portico-http",
		"version": strings.TrimSpace(portico.Version),
	})
}

// GetPartitions handles the GET /partitions request.
func (s *Server) GetPartitions(w http.ResponseWriter, r *http.Request) {
	specs, err := s.System.Inspect(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Inspect error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Inspect failed", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, specs)
}

// BeginTransition handles the POST /transitions request.
func (s *Server) BeginTransition(w http.ResponseWriter, r *http.Request) {
	var body TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("BeginTransition: Invalid request body", "error", err)
		return
	}

	var (
		t   *portico.Transition
		err error
	)
	if body.EnterPortal != nil {
		t, err = s.System.EnterByID(r.Context(), *body.EnterPortal)
	} else {
		t, err = s.System.Travel(r.Context(), domain.NormalizeKey(body.Partition), body.PortalID)
	}
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusAccepted, s.status(t))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrTransitionInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyDestination):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownDestinationPartition), errors.Is(err, domain.ErrDestinationPortalNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// GetCurrentTransition handles the GET /transitions/current request.
func (s *Server) GetCurrentTransition(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status(s.System.Current()))
}

func (s *Server) status(t *portico.Transition) TransitionStatus {
	st := TransitionStatus{
		InProgress:      s.System.InProgress(),
		State:           s.System.State(),
		ActivePartition: s.System.ActivePartition(),
	}
	if t == nil {
		return st
	}
	req := t.Request()
	st.Request = &req
	st.Phase = t.State()
	if p := t.Portal(); p != nil {
		st.Portal = &domain.Destination{Partition: p.Partition, ID: p.ID}
	}
	if err := t.Err(); err != nil {
		st.Error = err.Error()
	}
	return st
}

// GetGate handles the GET /gate request.
func (s *Server) GetGate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GateStatus{Allowed: s.System.ActivationAllowed()})
}

// SetGate handles the PUT /gate request.
func (s *Server) SetGate(w http.ResponseWriter, r *http.Request) {
	var body GateStatus
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.System.SetActivationAllowed(body.Allowed)
	s.logger.Info("activation gate changed", "allowed", body.Allowed)
	writeJSON(w, http.StatusOK, GateStatus{Allowed: s.System.ActivationAllowed()})
}

// Validate handles the POST /validate request. Pass ?disconnected=true to
// report unconnected portals.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	check := false
	if v := r.URL.Query().Get("disconnected"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "Invalid disconnected flag", http.StatusBadRequest)
			return
		}
		check = parsed
	}

	report, err := s.System.Validate(r.Context(), check)
	if report == nil {
		http.Error(w, fmt.Sprintf("Validate error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Validate failed", "error", err)
		return
	}
	if err != nil {
		// The report is complete; only publishing it failed.
		s.logger.Warn("Validate: report not published everywhere", "error", err)
	}

	s.mu.Lock()
	s.report = report
	s.mu.Unlock()

	if bytes, err := json.Marshal(report); err == nil {
		s.Streams.Broadcast(TopicReports, string(bytes))
	}
	writeJSON(w, http.StatusOK, report)
}

// GetReport handles the GET /report request.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	report := s.report
	s.mu.RUnlock()
	if report == nil {
		http.Error(w, "No validation has run yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) broadcastTransition(kind string, t *portico.Transition) {
	payload := map[string]any{"event": kind, "status": s.status(t)}
	if bytes, err := json.Marshal(payload); err == nil {
		s.Streams.Broadcast(TopicTransitions, string(bytes))
	}
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/scoreline/internal/adapters/repository"
	service "github.com/okian/scoreline/internal/app"
	"github.com/okian/scoreline/internal/domain/timeline"
	"github.com/okian/scoreline/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	MatchDependencies
	ScoreDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	matchesHandler *MatchesHandler
	scoreHandler   *ScoreHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		matchesHandler: NewMatchesHandler(deps, cfg.maxBodyBytes),
		scoreHandler:   NewScoreHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /matches", MetricsMiddleware(s.matchesHandler.HandleGenerate, "generate"))
	mux.HandleFunc("POST /matches/import", MetricsMiddleware(s.matchesHandler.HandleImport, "import"))
	mux.HandleFunc("GET /matches", MetricsMiddleware(s.matchesHandler.HandleList, "matches"))
	mux.HandleFunc("GET /matches/{id}", MetricsMiddleware(s.matchesHandler.HandleGet, "match"))
	mux.HandleFunc("DELETE /matches/{id}", MetricsMiddleware(s.matchesHandler.HandleDelete, "delete"))
	mux.HandleFunc("GET /matches/{id}/score", MetricsMiddleware(s.scoreHandler.HandleGetScore, "score"))
}

// Request and response shapes; see openapi.yaml.
type generateRequest struct {
	Name  string `json:"name"`
	Seed  int64  `json:"seed"`
	Count int    `json:"count"`
}

type acceptedResponse struct {
	MatchID string            `json:"match_id"`
	Status  types.MatchStatus `json:"status"`
}

type importResponse struct {
	MatchID   string `json:"match_id"`
	Duplicate bool   `json:"duplicate"`
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
	recordCode(w, code)
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps service, store and lookup errors to a status and error code.
// The two lookup kinds get distinct codes so clients can branch on them.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidCount),
		errors.Is(err, service.ErrInvalidTimeline),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, timeline.ErrNoSuchTimestamp):
		return http.StatusNotFound, "no_such_timestamp"
	case errors.Is(err, timeline.ErrOutOfRange):
		return http.StatusUnprocessableEntity, "out_of_range"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrPending):
		return http.StatusConflict, "pending"
	case errors.Is(err, service.ErrFailed):
		return http.StatusConflict, "failed"
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrStopped):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeClassified(w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	writeError(w, status, code, Wrap(op, err))
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ecolens/ecolens/internal/adapters/provider"
	"github.com/ecolens/ecolens/internal/app"
	"github.com/ecolens/ecolens/internal/domain/history"
	"github.com/ecolens/ecolens/internal/domain/model"
	"github.com/ecolens/ecolens/internal/domain/progress"
	"github.com/ecolens/ecolens/internal/domain/stats"
)

// Dependencies required by HTTP handlers. An interface bundle keeps the
// handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Signup(ctx context.Context, name, email, password string) (model.User, string, error)
	Signin(ctx context.Context, email, password string) (model.User, string, error)
	ResolveSession(ctx context.Context, token string) (string, error)

	GetUser(ctx context.Context, userID string) (model.User, history.Log, error)
	UpdateProfile(ctx context.Context, userID string, upd progress.ProfileUpdate) (model.User, error)
	SubmitAnalysis(ctx context.Context, userID, item string) (app.SubmitResult, error)
	ClearHistory(ctx context.Context, userID string) error
	WeeklyStats(ctx context.Context, userID string) (stats.Summary, int, error)
	Leaderboard(ctx context.Context, windowDays int, currentUserID string) ([]model.LeaderboardEntry, error)
}

// StatsProvider exposes service statistics for monitoring.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps          Dependencies
	statsProvider StatsProvider
	maxWindowDays int
}

// NewServer creates an API server backed by deps.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxWindowDays int) *Server {
	if maxWindowDays < 1 {
		maxWindowDays = 31
	}
	return &Server{deps: deps, statsProvider: statsProvider, maxWindowDays: maxWindowDays}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("POST /signup", MetricsMiddleware(s.handleSignup, "signup"))
	mux.HandleFunc("POST /signin", MetricsMiddleware(s.handleSignin, "signin"))

	mux.HandleFunc("GET /user/{id}", s.withAuth(s.handleGetUser, "user_get"))
	mux.HandleFunc("PUT /user/{id}", s.withAuth(s.handleUpdateUser, "user_update"))
	mux.HandleFunc("POST /user/{id}/analysis", s.withAuth(s.handleSubmitAnalysis, "analysis"))
	mux.HandleFunc("DELETE /user/{id}/history", s.withAuth(s.handleClearHistory, "history_clear"))
	mux.HandleFunc("GET /user/{id}/stats", s.withAuth(s.handleWeeklyStats, "weekly_stats"))
	mux.HandleFunc("GET /leaderboard", s.withAuth(s.handleLeaderboard, "leaderboard"))

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.handleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.handleStats, "stats"))
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

// writeServiceError translates service/provider error kinds to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, app.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, app.ErrValidation),
		errors.Is(err, provider.ErrInvalidItem),
		errors.Is(err, provider.ErrMalformedPayload):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, provider.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "provider_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

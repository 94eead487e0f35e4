// Package server exposes the evaluator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/DipperMason/calcalc/internal/calcalc"
	"github.com/DipperMason/calcalc/internal/history"
)

// Evaluator is the core operation served over HTTP.
type Evaluator interface {
	Evaluate(ctx context.Context, expr string, forceRemote bool) (calcalc.Result, error)
}

// HistoryLister lists stored evaluations.
type HistoryLister interface {
	List(ctx context.Context, limit int) ([]history.Entry, error)
}

// Config holds the HTTP service settings.
type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// Service handles the HTTP API.
type Service struct {
	eval    Evaluator
	history HistoryLister
	auth    *Authenticator
	metrics *Metrics
	logger  *slog.Logger
}

// EvaluateResponse is the JSON body of /evaluate.
type EvaluateResponse struct {
	Expression string `json:"expression"`
	Route      string `json:"route"`
	Result     any    `json:"result"`
	Found      bool   `json:"found"`
	Fallback   string `json:"fallback,omitempty"`
}

const defaultHistoryLimit = 20

// New builds the service. hist may be nil, which disables /history.
func New(cfg Config, eval Evaluator, hist HistoryLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	var auth *Authenticator
	if cfg.JWTSecret != "" {
		auth = NewAuthenticator([]byte(cfg.JWTSecret), cfg.TokenTTL)
	}
	return &Service{
		eval:    eval,
		history: hist,
		auth:    auth,
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Handler returns the router for all endpoints.
func (s *Service) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/token", s.issueToken).Methods(http.MethodPost)
	r.Handle("/evaluate", s.authorized(http.HandlerFunc(s.evaluate))).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/history", s.authorized(http.HandlerFunc(s.listHistory))).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	r.Use(s.logRequests)
	return r
}

func (s *Service) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// issueToken hands out a signed token for the form value "user".
func (s *Service) issueToken(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusNotFound, "authentication is disabled")
		return
	}
	user := strings.TrimSpace(r.FormValue("user"))
	if user == "" {
		writeError(w, http.StatusBadRequest, "user is required")
		return
	}
	token, err := s.auth.Issue(user)
	if err != nil {
		s.logger.Error("sign token", "error", err)
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Service) evaluate(w http.ResponseWriter, r *http.Request) {
	input := r.FormValue("input")
	if strings.TrimSpace(input) == "" {
		writeError(w, http.StatusBadRequest, "input is required")
		return
	}
	force := false
	if v := r.FormValue("remote"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "remote must be a boolean")
			return
		}
		force = b
	}

	start := time.Now()
	res, err := s.eval.Evaluate(r.Context(), input, force)
	s.metrics.Observe(res, err, time.Since(start))
	if err != nil {
		s.logger.Warn("evaluate", "input", input, "error", err)
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeError(w, status, "remote evaluation failed")
		return
	}

	resp := EvaluateResponse{
		Expression: res.Expression,
		Route:      string(res.Route),
		Result:     res.Text,
		Found:      res.Found,
		Fallback:   res.Fallback,
	}
	if res.Value != nil {
		resp.Result = res.Value
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) listHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("list history", "error", err)
		writeError(w, http.StatusInternalServerError, "could not read history")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Service) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

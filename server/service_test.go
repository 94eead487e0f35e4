package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DipperMason/calcalc/internal/calcalc"
	"github.com/DipperMason/calcalc/internal/history"
	"github.com/DipperMason/calcalc/internal/logging"
)

type stubResolver struct {
	answer string
	found  bool
	err    error
}

func (s stubResolver) Resolve(ctx context.Context, input string) (string, bool, error) {
	return s.answer, s.found, s.err
}

type userRecorder struct {
	users []string
}

func (u *userRecorder) Record(ctx context.Context, rec calcalc.Record) error {
	u.users = append(u.users, rec.User)
	return nil
}

type stubHistory struct {
	entries []history.Entry
	limit   int
}

func (s *stubHistory) List(ctx context.Context, limit int) ([]history.Entry, error) {
	s.limit = limit
	return s.entries, nil
}

func newTestService(t *testing.T, cfg Config, remote calcalc.Resolver, opts ...calcalc.Option) (*Service, http.Handler) {
	t.Helper()
	opts = append(opts, calcalc.WithLogger(logging.NewNop()))
	ev := calcalc.New(remote, opts...)
	svc := New(cfg, ev, &stubHistory{}, logging.NewNop())
	return svc, svc.Handler()
}

func do(h http.Handler, method, target string, body url.Values, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	_, h := newTestService(t, Config{}, nil)
	rr := do(h, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode(t, rr)["status"])
}

func TestEvaluateLocal(t *testing.T) {
	_, h := newTestService(t, Config{}, stubResolver{answer: "11", found: true})
	rr := do(h, http.MethodGet, "/evaluate?input="+url.QueryEscape("3 + 7"), nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode(t, rr)
	assert.Equal(t, "3 + 7", body["expression"])
	assert.Equal(t, "local", body["route"])
	assert.Equal(t, float64(10), body["result"])
	assert.Equal(t, true, body["found"])
	assert.NotContains(t, body, "fallback")
}

func TestEvaluateRemote(t *testing.T) {
	_, h := newTestService(t, Config{}, stubResolver{answer: "42", found: true})
	rr := do(h, http.MethodPost, "/evaluate", url.Values{"input": {"What is the meaning of life?"}}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode(t, rr)
	assert.Equal(t, "remote", body["route"])
	assert.Equal(t, "42", body["result"])
	assert.Equal(t, calcalc.FallbackUnsafe, body["fallback"])
}

func TestEvaluateForcedRemote(t *testing.T) {
	_, h := newTestService(t, Config{}, stubResolver{answer: "10", found: true})
	rr := do(h, http.MethodGet, "/evaluate?remote=true&input="+url.QueryEscape("3 + 7"), nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode(t, rr)
	assert.Equal(t, "remote", body["route"])
	assert.Equal(t, "10", body["result"])
	assert.Equal(t, calcalc.FallbackForced, body["fallback"])
}

func TestEvaluateNotFound(t *testing.T) {
	_, h := newTestService(t, Config{}, stubResolver{})
	rr := do(h, http.MethodGet, "/evaluate?input=gibberish", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode(t, rr)
	assert.Equal(t, calcalc.NotFound, body["result"])
	assert.Equal(t, false, body["found"])
}

func TestEvaluateBadRequests(t *testing.T) {
	_, h := newTestService(t, Config{}, stubResolver{})

	rr := do(h, http.MethodGet, "/evaluate", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(h, http.MethodGet, "/evaluate?input=1&remote=maybe", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(h, http.MethodDelete, "/evaluate?input=1", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestEvaluateRemoteFailure(t *testing.T) {
	_, h := newTestService(t, Config{}, stubResolver{err: errors.New("connection refused")})
	rr := do(h, http.MethodGet, "/evaluate?input=mass+of+sun", nil, nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "remote evaluation failed", decode(t, rr)["error"])
}

func TestAuthFlow(t *testing.T) {
	rec := &userRecorder{}
	_, h := newTestService(t, Config{JWTSecret: "s3cret", TokenTTL: time.Minute}, stubResolver{},
		calcalc.WithRecorder(rec))

	rr := do(h, http.MethodGet, "/evaluate?input=1", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(h, http.MethodPost, "/token", url.Values{"user": {""}}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(h, http.MethodPost, "/token", url.Values{"user": {"alice"}}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	token, _ := decode(t, rr)["token"].(string)
	require.NotEmpty(t, token)

	auth := http.Header{"Authorization": {"Bearer " + token}}
	rr = do(h, http.MethodGet, "/evaluate?input=1", nil, auth)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"alice"}, rec.users)

	rr = do(h, http.MethodGet, "/history", nil, auth)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = do(h, http.MethodGet, "/history", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthRejectsForeignToken(t *testing.T) {
	_, h := newTestService(t, Config{JWTSecret: "s3cret"}, stubResolver{})

	other, err := NewAuthenticator([]byte("other"), time.Minute).Issue("mallory")
	require.NoError(t, err)
	rr := do(h, http.MethodGet, "/evaluate?input=1", nil, http.Header{"Authorization": {"Bearer " + other}})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(h, http.MethodGet, "/evaluate?input=1", nil, http.Header{"Authorization": {"Basic abc"}})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthenticatorExpiry(t *testing.T) {
	a := NewAuthenticator([]byte("k"), time.Minute)
	issued := time.Now()
	a.now = func() time.Time { return issued }
	token, err := a.Issue("bob")
	require.NoError(t, err)

	user, err := a.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "bob", user)

	a.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = a.Verify(token)
	assert.Error(t, err)
}

func TestTokenDisabled(t *testing.T) {
	_, h := newTestService(t, Config{}, stubResolver{})
	rr := do(h, http.MethodPost, "/token", url.Values{"user": {"alice"}}, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHistory(t *testing.T) {
	hist := &stubHistory{entries: []history.Entry{{ID: 1, Expression: "3 + 7", Route: "local", Response: "10", Found: true}}}
	svc := New(Config{}, calcalc.New(nil, calcalc.WithLogger(logging.NewNop())), hist, logging.NewNop())
	h := svc.Handler()

	rr := do(h, http.MethodGet, "/history?limit=5", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 5, hist.limit)
	var entries []history.Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "10", entries[0].Response)

	rr = do(h, http.MethodGet, "/history", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, defaultHistoryLimit, hist.limit)

	rr = do(h, http.MethodGet, "/history?limit=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHistoryDisabled(t *testing.T) {
	svc := New(Config{}, calcalc.New(nil), nil, logging.NewNop())
	rr := do(svc.Handler(), http.MethodGet, "/history", nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetrics(t *testing.T) {
	_, h := newTestService(t, Config{}, stubResolver{answer: "42", found: true})
	do(h, http.MethodGet, "/evaluate?input=1%2B1", nil, nil)
	do(h, http.MethodGet, "/evaluate?input=life", nil, nil)

	rr := do(h, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `calcalc_evaluations_total{found="true",route="local"} 1`)
	assert.Contains(t, body, `calcalc_evaluations_total{found="true",route="remote"} 1`)
	assert.Contains(t, body, "calcalc_evaluation_duration_seconds")
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	settings "github.com/mldkyt/go-settings"
	"github.com/mldkyt/go-settings/internal/logging"
	"github.com/mldkyt/go-settings/pkg/activity/promsink"
	"github.com/mldkyt/go-settings/pkg/catalog"
	"github.com/mldkyt/go-settings/pkg/state"
)

const testToken = "test-admin-token"

type failingStore struct{}

func (failingStore) Get(context.Context, string, string) (string, bool, error) {
	return "", false, errors.New("store offline")
}

func (failingStore) Set(context.Context, string, string, string) error {
	return errors.New("store offline")
}

func (failingStore) Delete(context.Context, string, string) error {
	return errors.New("store offline")
}

func newTestServer(t *testing.T, store settings.Store, opts ...ServerOption) *Server {
	t.Helper()
	engine, err := settings.NewEngine(catalog.Default(), store,
		settings.WithActionHandler("leveling", "add-reward", func(_ context.Context, req settings.ActionRequest) (string, error) {
			return "Added reward at level " + req.Args["level"].String(), nil
		}),
	)
	require.NoError(t, err)
	opts = append([]ServerOption{WithAdminToken(testToken), WithLogger(logging.NewNop())}, opts...)
	return NewServer(engine, opts...)
}

func do(t *testing.T, srv *Server, method, path, body string, authorized bool) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if authorized {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, state.NewMemoryStore())
	rec, body := do(t, srv, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestIDIsPropagated(t *testing.T) {
	srv := newTestServer(t, state.NewMemoryStore())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestReadWriteResetRoundTrip(t *testing.T) {
	store := state.NewMemoryStore()
	srv := newTestServer(t, store)
	path := "/domains/42/settings/chatsummary/top-users"

	rec, body := do(t, srv, http.MethodGet, path, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "current", body["kind"])
	assert.Equal(t, "5", body["display"])

	rec, body = do(t, srv, http.MethodPut, path, `{"value": 8}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "confirmed", body["kind"])
	assert.Equal(t, "8", body["value"])

	value, ok, err := store.Get(context.Background(), "42", "chatSummaryTopUsers")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "8", value)

	rec, body = do(t, srv, http.MethodDelete, path, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5", body["display"])
	assert.Equal(t, 0, store.Len())
}

func TestRejectionStatusCodes(t *testing.T) {
	srv := newTestServer(t, state.NewMemoryStore())

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		authorized bool
		status     int
		reason     string
	}{
		{"unauthorized read", http.MethodGet, "/domains/1/settings/welcome/channel", "", false, http.StatusForbidden, "unauthorized"},
		{"unknown item", http.MethodGet, "/domains/1/settings/welcome/nope", "", true, http.StatusNotFound, "not-found"},
		{"out of range", http.MethodPut, "/domains/1/settings/chatsummary/top-users", `{"value": 10}`, true, http.StatusUnprocessableEntity, "out-of-range"},
		{"invalid choice", http.MethodPut, "/domains/1/settings/welcome/name", `{"value": "Nickname"}`, true, http.StatusUnprocessableEntity, "invalid-choice"},
		{"unhandled action", http.MethodPost, "/domains/1/actions/leveling/remove-reward", `{"args": {"level": 3}}`, true, http.StatusNotImplemented, "unhandled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, srv, tt.method, tt.path, tt.body, tt.authorized)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "rejected", body["kind"])
			assert.Equal(t, tt.reason, body["reason"])
			assert.NotEmpty(t, body["detail"])
		})
	}
}

func TestUnauthorizedNeverDisclosesValues(t *testing.T) {
	store := state.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "1", "welcomeEmbedTitle", "secret title"))
	srv := newTestServer(t, store)

	rec, _ := do(t, srv, http.MethodGet, "/domains/1/settings/welcome/embed-title", "", false)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret title")

	req := httptest.NewRequest(http.MethodGet, "/domains/1/settings/welcome/embed-title", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = do(t, srv, http.MethodGet, "/domains/1/settings", "", false)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret title")
}

func TestEmptyAdminTokenAuthorizesNobody(t *testing.T) {
	srv := newTestServer(t, state.NewMemoryStore(), WithAdminToken(""))
	req := httptest.NewRequest(http.MethodGet, "/domains/1/settings/welcome/channel", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMalformedBodies(t *testing.T) {
	srv := newTestServer(t, state.NewMemoryStore())
	path := "/domains/1/settings/chatsummary/top-users"

	for _, body := range []string{`{"value": 1.5}`, `{"value": [1]}`, `{"valu": 1}`, `{}`, `not json`} {
		rec, _ := do(t, srv, http.MethodPut, path, body, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestPersistenceFailureIsServiceUnavailable(t *testing.T) {
	srv := newTestServer(t, failingStore{})
	rec, body := do(t, srv, http.MethodGet, "/domains/1/settings/welcome/channel", "", true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "persistence", body["reason"])
	assert.NotContains(t, rec.Body.String(), "store offline")
}

func TestActionDispatch(t *testing.T) {
	srv := newTestServer(t, state.NewMemoryStore())
	rec, body := do(t, srv, http.MethodPost, "/domains/1/actions/leveling/add-reward",
		`{"args": {"level": 5, "role": "900"}}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "performed", body["kind"])
	assert.Equal(t, "Added reward at level 5", body["display"])

	rec, body = do(t, srv, http.MethodPost, "/domains/1/actions/leveling/add-reward", `{"args": {"level": 5}}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body["detail"], "role")
}

func TestIntrospection(t *testing.T) {
	srv := newTestServer(t, state.NewMemoryStore())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/groups", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var groups []settings.GroupDescriptor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	require.NotEmpty(t, groups)
	assert.Equal(t, "logging", groups[0].Name)

	rec, body := do(t, srv, http.MethodGet, "/groups/chatsummary", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chatsummary", body["name"])

	rec, _ = do(t, srv, http.MethodGet, "/groups/nope", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = do(t, srv, http.MethodGet, "/schema", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3.1.0", body["openapi"])
	assert.Contains(t, body["paths"], "/domains/{domain}/settings/chatsummary/top-users")
}

func TestSnapshotAndEvaluate(t *testing.T) {
	store := state.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "1", "AntiRaidNoPFP", "yes"))
	srv := newTestServer(t, store)

	rec, body := do(t, srv, http.MethodGet, "/domains/1/settings", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	antiraid, ok := body["antiraid"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, antiraid["nopfp"])

	rec, body = do(t, srv, http.MethodPost, "/domains/1/evaluate", `{"expression": "antiraid.nopfp && !antiraid.spamdelete"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["result"])

	rec, _ = do(t, srv, http.MethodPost, "/domains/1/evaluate", `{"expression": "antiraid.nopfp &&"}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = do(t, srv, http.MethodPost, "/domains/1/evaluate", `{"expression": "antiraid.nopfpp"}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = do(t, srv, http.MethodPost, "/domains/1/evaluate", `{}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	hook, err := promsink.New(reg, "akabot")
	require.NoError(t, err)

	engine, err := settings.NewEngine(catalog.Default(), state.NewMemoryStore(), settings.WithActivityHooks(hook))
	require.NoError(t, err)
	srv := NewServer(engine,
		WithAdminToken(testToken),
		WithLogger(logging.NewNop()),
		WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)

	do(t, srv, http.MethodPut, "/domains/1/settings/antiraid/nopfp", `{"value": true}`, true)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "akabot_settings_events_total")
	assert.Contains(t, rec.Body.String(), `verb="settings.updated"`)
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, state.NewMemoryStore(), WithRateLimit(0, 1))
	path := "/domains/1/settings/antiraid/nopfp"

	rec, _ := do(t, srv, http.MethodPut, path, `{"value": true}`, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, srv, http.MethodPut, path, `{"value": false}`, true)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec, _ = do(t, srv, http.MethodGet, path, "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, state.NewMemoryStore(), WithCORSOrigins("https://dash.example"))
	req := httptest.NewRequest(http.MethodOptions, "/groups", nil)
	req.Header.Set("Origin", "https://dash.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "https://dash.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusForReason(t *testing.T) {
	assert.Equal(t, http.StatusOK, statusForReason(settings.ReasonNone))
	assert.Equal(t, http.StatusUnprocessableEntity, statusForReason(settings.ReasonInvalidSign))
	assert.Equal(t, http.StatusInternalServerError, statusForReason(settings.ReasonCorruptValue))
	assert.Equal(t, http.StatusInternalServerError, statusForReason(settings.ReasonInternal))
}

func TestTokenMatches(t *testing.T) {
	assert.True(t, tokenMatches("Bearer abc", "abc"))
	assert.True(t, tokenMatches("bearer   abc ", "abc"))
	assert.False(t, tokenMatches("Basic abc", "abc"))
	assert.False(t, tokenMatches("abc", "abc"))
	assert.False(t, tokenMatches("Bearer abcd", "abc"))
}

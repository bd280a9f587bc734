package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type schemaState struct {
	ok  bool
	err error
}

func (s schemaState) Ready() (bool, error) { return s.ok, s.err }

func get(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLivenessIgnoresDependencies(t *testing.T) {
	h := NewHandler(pingFunc(func(context.Context) error { return errors.New("down") }), schemaState{err: errors.New("failed")})
	rec := get(h, LivenessPath)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadiness(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("dial tcp: connection refused") })

	cases := []struct {
		name   string
		db     Pinger
		schema schemaState
		status int
		body   string
	}{
		{"ready", up, schemaState{ok: true}, http.StatusOK, `{"status":"ready"}`},
		{"schema failed", up, schemaState{err: errors.New("permission denied")}, http.StatusServiceUnavailable, `{"status":"unavailable","schema":"permission denied"}`},
		{"database down", down, schemaState{ok: true}, http.StatusServiceUnavailable, `{"status":"unavailable","database":"unreachable"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(NewHandler(tc.db, tc.schema), ReadinessPath)
			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}

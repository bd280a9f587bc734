package httpx

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/georgemunganga/product-store/internal/apperr"
	"github.com/georgemunganga/product-store/internal/obs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoBody(t *testing.T) (http.Handler, *bool) {
	reached := new(bool)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		_, _ = w.Write(data)
	}), reached
}

func TestParseJSON(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
		status      int
		reached     bool
	}{
		{"valid object", "application/json", `{"a":1}`, http.StatusOK, true},
		{"charset param", "application/json; charset=utf-8", `[1,2]`, http.StatusOK, true},
		{"missing content type", "", `{"a":`, http.StatusBadRequest, false},
		{"truncated", "application/json", `{"a":`, http.StatusBadRequest, false},
		{"trailing comma", "application/json", `{"a":1,}`, http.StatusBadRequest, false},
		{"empty body", "application/json", ``, http.StatusOK, true},
		{"not json content type", "text/plain", `{"a":`, http.StatusOK, true},
		{"too large", "application/json", `"` + strings.Repeat("a", MaxBodyBytes) + `"`, http.StatusRequestEntityTooLarge, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, reached := echoBody(t)
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			rec := httptest.NewRecorder()
			ParseJSON(next).ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.reached, *reached)
			if tc.reached {
				assert.Equal(t, tc.body, rec.Body.String())
			}
			if tc.status == http.StatusBadRequest {
				assert.JSONEq(t, `{"error":"Malformed JSON body"}`, rec.Body.String())
			}
		})
	}
}

func TestDecodeStrict(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	cases := []struct {
		body    string
		message string
	}{
		{``, "request body is required"},
		{`{"name":"a","extra":1}`, `unknown field "extra"`},
		{`{"count":"three"}`, "count has an invalid type"},
		{`{"name":"a"} {"name":"b"}`, "request body must contain a single JSON object"},
		{`[]`, "request body must be a JSON object"},
		{`"x"`, "request body must be a JSON object"},
	}
	for _, tc := range cases {
		var p payload
		err := DecodeStrict(strings.NewReader(tc.body), &p)
		require.Error(t, err, tc.body)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.Equal(t, tc.message, apperr.PublicMessage(err))
	}

	var p payload
	require.NoError(t, DecodeStrict(strings.NewReader(`{"name":"a","count":2}`), &p))
	assert.Equal(t, payload{Name: "a", Count: 2}, p)
}

func TestErrorHandlerMapsKinds(t *testing.T) {
	errs := NewErrorHandler(obs.Discard())
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{apperr.Validation("name is required"), http.StatusBadRequest, `{"error":"name is required"}`},
		{apperr.NotFound("Product not found"), http.StatusNotFound, `{"error":"Product not found"}`},
		{apperr.Wrap(apperr.KindUnavailable, "db", errors.New("password authentication failed for user")), http.StatusInternalServerError, `{"error":"Internal Server Error"}`},
		{errors.New("pq: syntax error"), http.StatusInternalServerError, `{"error":"Internal Server Error"}`},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		errs.Wrap(func(w http.ResponseWriter, r *http.Request) error { return tc.err }).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, tc.status, rec.Code)
		assert.JSONEq(t, tc.body, rec.Body.String())
	}
}

func TestErrorAfterWriteIsNotWrittenTwice(t *testing.T) {
	errs := NewErrorHandler(obs.Discard())
	h := errs.Recoverer(errs.Wrap(func(w http.ResponseWriter, r *http.Request) error {
		Respond(w, http.StatusOK, map[string]string{"status": "partial"})
		return errors.New("late failure")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"partial"}`, rec.Body.String())
}

func TestRecovererAfterWrite(t *testing.T) {
	errs := NewErrorHandler(obs.Discard())
	h := errs.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("after header")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))
}

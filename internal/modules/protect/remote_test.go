package protect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/georgemunganga/product-store/internal/obs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteOracleDecision(t *testing.T) {
	var got decideRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/decide", r.URL.Path)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"conclusion": "DENY",
			"reason": {"type": "RATE_LIMIT", "detail": "bucket empty"},
			"results": [
				{"rule": "bot", "conclusion": "ALLOW", "reason": {"type": "BOT", "spoofed": true}},
				{"rule": "token_bucket", "conclusion": "DENY", "reason": {"type": "RATE_LIMIT"}}
			]
		}`))
	}))
	defer srv.Close()

	o := NewRemoteOracle(srv.URL+"/", "secret-key", obs.Discard())
	r := httptest.NewRequest(http.MethodGet, "/api/products?page=2", nil)
	r.RemoteAddr = "203.0.113.20:4000"
	r.Header.Set("User-Agent", "Mozilla/5.0")

	d, err := o.Protect(context.Background(), r, RequestCost)
	require.NoError(t, err)
	assert.True(t, d.IsDenied())
	assert.True(t, d.IsRateLimit())
	assert.True(t, d.IsSpoofed())
	assert.Equal(t, RateLimited, d.Verdict())
	assert.Equal(t, "bucket empty", d.Reason.Detail)
	require.Len(t, d.Results, 2)

	assert.Equal(t, 1, got.Requested)
	assert.Equal(t, "203.0.113.20", got.IP)
	assert.Equal(t, "/api/products", got.Path)
	assert.Equal(t, "page=2", got.Query)
	assert.Equal(t, "Mozilla/5.0", got.Headers["user-agent"])
}

func TestRemoteOracleReasonTypes(t *testing.T) {
	assert.Equal(t, ReasonNone, wireReason{}.toReason().Kind)
	assert.Equal(t, ReasonBot, wireReason{Type: "bot"}.toReason().Kind)
	assert.Equal(t, ReasonShield, wireReason{Type: "SHIELD"}.toReason().Kind)
	assert.Equal(t, ReasonOther, wireReason{Type: "EMAIL"}.toReason().Kind)
}

func TestRemoteOracleFailsClosed(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{}`},
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad key"}`},
		{"garbage body", http.StatusOK, `not json`},
		{"unknown conclusion", http.StatusOK, `{"conclusion":"MAYBE"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			o := NewRemoteOracle(srv.URL, "k", obs.Discard())
			o.client.RetryWaitMin = 0
			o.client.RetryWaitMax = 0

			_, err := o.Protect(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil), RequestCost)
			assert.Error(t, err)
			assert.NotZero(t, hits.Load())
		})
	}
}

func TestRemoteOracleUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	o := NewRemoteOracle(url, "k", obs.Discard())
	o.client.RetryMax = 0
	_, err := o.Protect(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil), RequestCost)
	assert.Error(t, err)
}

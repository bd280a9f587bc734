package protect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// RemoteOracle asks a hosted decision service. Any transport failure, non-2xx
// status or undecodable answer is returned as an error; it never guesses.
type RemoteOracle struct {
	endpoint string
	key      string
	client   *retryablehttp.Client
}

func NewRemoteOracle(baseURL, key string, logger *slog.Logger) *RemoteOracle {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 50 * time.Millisecond
	client.RetryWaitMax = 500 * time.Millisecond
	client.Logger = logger
	return &RemoteOracle{
		endpoint: strings.TrimRight(baseURL, "/") + "/v1/decide",
		key:      key,
		client:   client,
	}
}

type decideRequest struct {
	Requested int               `json:"requested"`
	IP        string            `json:"ip"`
	Method    string            `json:"method"`
	Host      string            `json:"host"`
	Path      string            `json:"path"`
	Query     string            `json:"query,omitempty"`
	Headers   map[string]string `json:"headers"`
}

type wireReason struct {
	Type    string `json:"type"`
	Spoofed bool   `json:"spoofed,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

type wireResult struct {
	Rule       string     `json:"rule"`
	Conclusion string     `json:"conclusion"`
	Reason     wireReason `json:"reason"`
}

type decideResponse struct {
	Conclusion string       `json:"conclusion"`
	Reason     wireReason   `json:"reason"`
	Results    []wireResult `json:"results"`
}

var forwardedHeaders = []string{"User-Agent", "Accept", "Accept-Language", "Accept-Encoding", "Referer"}

func (o *RemoteOracle) Protect(ctx context.Context, r *http.Request, requested int) (Decision, error) {
	payload := decideRequest{
		Requested: requested,
		IP:        clientIP(r),
		Method:    r.Method,
		Host:      r.Host,
		Path:      r.URL.Path,
		Query:     r.URL.RawQuery,
		Headers:   make(map[string]string, len(forwardedHeaders)),
	}
	for _, h := range forwardedHeaders {
		if v := r.Header.Get(h); v != "" {
			payload.Headers[strings.ToLower(h)] = v
		}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Decision{}, fmt.Errorf("encoding decide request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, body)
	if err != nil {
		return Decision{}, fmt.Errorf("building decide request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.key)

	resp, err := o.client.Do(req)
	if err != nil {
		return Decision{}, fmt.Errorf("calling decision service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return Decision{}, fmt.Errorf("decision service returned %s", resp.Status)
	}

	var out decideResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return Decision{}, fmt.Errorf("decoding decision: %w", err)
	}
	return out.toDecision()
}

func (r decideResponse) toDecision() (Decision, error) {
	conclusion, err := parseConclusion(r.Conclusion)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{Conclusion: conclusion, Reason: r.Reason.toReason()}
	for _, res := range r.Results {
		c, err := parseConclusion(res.Conclusion)
		if err != nil {
			return Decision{}, err
		}
		d.Results = append(d.Results, Result{Rule: res.Rule, Conclusion: c, Reason: res.Reason.toReason()})
	}
	return d, nil
}

func parseConclusion(s string) (Conclusion, error) {
	switch strings.ToUpper(s) {
	case "ALLOW":
		return Allow, nil
	case "DENY":
		return Deny, nil
	default:
		return Allow, fmt.Errorf("unknown conclusion %q", s)
	}
}

func (w wireReason) toReason() Reason {
	kind := ReasonOther
	switch strings.ToUpper(w.Type) {
	case "", "NONE":
		kind = ReasonNone
	case "RATE_LIMIT":
		kind = ReasonRateLimit
	case "BOT":
		kind = ReasonBot
	case "SHIELD":
		kind = ReasonShield
	}
	return Reason{Kind: kind, Spoofed: w.Spoofed, Detail: w.Detail}
}

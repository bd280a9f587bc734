package protect

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Resolver is the DNS subset used to verify crawlers. *net.Resolver satisfies it.
type Resolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// LocalOptions configures the in-process oracle. RefillRate tokens are added
// every Interval, up to Capacity.
type LocalOptions struct {
	RefillRate int
	Interval   time.Duration
	Capacity   int
	Resolver   Resolver
	Now        func() time.Time
}

// LocalOracle judges requests in process: shield, then bot detection, then a
// per-IP token bucket. Evaluation stops at the first denying rule.
type LocalOracle struct {
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	resolver Resolver
	now      func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalOracle(opts LocalOptions) *LocalOracle {
	if opts.Resolver == nil {
		opts.Resolver = net.DefaultResolver
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	// A bucket idle for a full refill cycle is back at capacity and can be dropped.
	idle := time.Duration(float64(opts.Interval) * float64(opts.Capacity) / float64(opts.RefillRate))
	if idle < time.Minute {
		idle = time.Minute
	}
	return &LocalOracle{
		limit:    rate.Limit(float64(opts.RefillRate) / opts.Interval.Seconds()),
		burst:    opts.Capacity,
		idleTTL:  idle,
		resolver: opts.Resolver,
		now:      opts.Now,
		buckets:  make(map[string]*bucket),
	}
}

func (o *LocalOracle) Protect(ctx context.Context, r *http.Request, requested int) (Decision, error) {
	rules := []func() Result{
		func() Result { return shield(r) },
		func() Result { return o.detectBot(ctx, r) },
		func() Result { return o.tokenBucket(clientIP(r), requested) },
	}

	var d Decision
	for _, rule := range rules {
		res := rule()
		d.Results = append(d.Results, res)
		if res.Conclusion == Deny {
			d.Conclusion = Deny
			d.Reason = res.Reason
			return d, nil
		}
	}
	return d, nil
}

var shieldPatterns = []string{
	"../",
	"..\\",
	"<script",
	"javascript:",
	"union select",
	"' or '1'='1",
	"/etc/passwd",
}

// shield rejects obvious traversal and injection probes in the path or query.
func shield(r *http.Request) Result {
	target := r.URL.EscapedPath() + "?" + r.URL.RawQuery
	if unescaped, err := url.QueryUnescape(target); err == nil {
		target = unescaped
	}
	target = strings.ToLower(target)
	for _, p := range shieldPatterns {
		if strings.Contains(target, p) {
			return Result{Rule: "shield", Conclusion: Deny, Reason: Reason{Kind: ReasonShield, Detail: "suspicious pattern " + p}}
		}
	}
	return Result{Rule: "shield", Conclusion: Allow}
}

var automatedAgents = []string{
	"curl/", "wget/", "python-requests", "python-urllib", "go-http-client", "scrapy",
	"libwww-perl", "httpclient", "headlesschrome", "phantomjs", "java/", "okhttp",
}

// crawlers are verified search engines. They are allowed, but only after their
// reverse DNS name resolves back to the client address.
var crawlers = map[string][]string{
	"googlebot":   {".googlebot.com", ".google.com"},
	"bingbot":     {".search.msn.com"},
	"applebot":    {".applebot.apple.com"},
	"yandexbot":   {".yandex.ru", ".yandex.net", ".yandex.com"},
	"baiduspider": {".baidu.com", ".baidu.jp"},
}

func (o *LocalOracle) detectBot(ctx context.Context, r *http.Request) Result {
	ua := strings.ToLower(strings.TrimSpace(r.UserAgent()))
	if ua == "" {
		return Result{Rule: "bot", Conclusion: Deny, Reason: Reason{Kind: ReasonBot, Detail: "missing user agent"}}
	}
	for name, suffixes := range crawlers {
		if strings.Contains(ua, name) {
			verified := o.verifyCrawler(ctx, clientIP(r), suffixes)
			return Result{Rule: "bot", Conclusion: Allow, Reason: Reason{Kind: ReasonBot, Spoofed: !verified, Detail: name}}
		}
	}
	for _, agent := range automatedAgents {
		if strings.Contains(ua, agent) {
			return Result{Rule: "bot", Conclusion: Deny, Reason: Reason{Kind: ReasonBot, Detail: agent}}
		}
	}
	return Result{Rule: "bot", Conclusion: Allow}
}

func (o *LocalOracle) verifyCrawler(ctx context.Context, ip string, suffixes []string) bool {
	names, err := o.resolver.LookupAddr(ctx, ip)
	if err != nil {
		return false
	}
	for _, name := range names {
		host := strings.TrimSuffix(strings.ToLower(name), ".")
		if !hasAnySuffix(host, suffixes) {
			continue
		}
		addrs, err := o.resolver.LookupHost(ctx, host)
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if a == ip {
				return true
			}
		}
	}
	return false
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func (o *LocalOracle) tokenBucket(ip string, requested int) Result {
	now := o.now()

	o.mu.Lock()
	if now.Sub(o.lastSweep) >= time.Minute {
		for k, b := range o.buckets {
			if now.Sub(b.lastSeen) > o.idleTTL {
				delete(o.buckets, k)
			}
		}
		o.lastSweep = now
	}
	b, ok := o.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(o.limit, o.burst)}
		o.buckets[ip] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, requested)
	o.mu.Unlock()

	if !allowed {
		return Result{Rule: "token_bucket", Conclusion: Deny, Reason: Reason{Kind: ReasonRateLimit, Detail: ip}}
	}
	return Result{Rule: "token_bucket", Conclusion: Allow}
}

// clientIP strips the port from RemoteAddr. Behind a proxy, chi's RealIP has
// already replaced RemoteAddr with the forwarded address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

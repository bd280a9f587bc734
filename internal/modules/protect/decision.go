// Package protect admits or rejects inbound requests using a rate-limit and
// bot-detection oracle.
package protect

import "net/http"

type Conclusion int

const (
	Allow Conclusion = iota
	Deny
)

func (c Conclusion) String() string {
	if c == Deny {
		return "DENY"
	}
	return "ALLOW"
}

// ReasonKind is the rule family that produced a result.
type ReasonKind int

const (
	ReasonNone ReasonKind = iota
	ReasonRateLimit
	ReasonBot
	ReasonShield
	ReasonOther
)

// Reason explains a result. Spoofed is only meaningful for bot reasons: the
// client claimed to be a verified crawler and failed verification.
type Reason struct {
	Kind    ReasonKind
	Spoofed bool
	Detail  string
}

// Result is the outcome of one rule.
type Result struct {
	Rule       string
	Conclusion Conclusion
	Reason     Reason
}

// Decision is the oracle's answer for one request. It is never cached.
type Decision struct {
	Conclusion Conclusion
	Reason     Reason
	Results    []Result
}

func (d Decision) IsDenied() bool { return d.Conclusion == Deny }

func (d Decision) IsRateLimit() bool { return d.Reason.Kind == ReasonRateLimit }

func (d Decision) IsBot() bool { return d.Reason.Kind == ReasonBot }

// IsSpoofed checks every rule result, not just the deciding one, so a request
// denied for one reason can still be flagged as a spoofed bot.
func (d Decision) IsSpoofed() bool {
	for _, r := range d.Results {
		if r.Reason.Kind == ReasonBot && r.Reason.Spoofed {
			return true
		}
	}
	return false
}

// Verdict is the admission outcome the pipeline acts on.
type Verdict int

const (
	Allowed Verdict = iota
	RateLimited
	BotDenied
	SpoofedBot
	OtherDenial
)

// Verdict collapses the decision. Denials are classified first; an allowed
// decision with any spoofed-bot result is still rejected.
func (d Decision) Verdict() Verdict {
	if d.IsDenied() {
		switch {
		case d.IsRateLimit():
			return RateLimited
		case d.IsBot():
			return BotDenied
		default:
			return OtherDenial
		}
	}
	if d.IsSpoofed() {
		return SpoofedBot
	}
	return Allowed
}

// Status returns the HTTP status and client message for a rejecting verdict.
func (v Verdict) Status() (int, string) {
	switch v {
	case RateLimited:
		return http.StatusTooManyRequests, "Too Many Requests"
	case BotDenied:
		return http.StatusForbidden, "Bot access denied"
	case SpoofedBot:
		return http.StatusForbidden, "Spoofed bot detected"
	case OtherDenial:
		return http.StatusForbidden, "Forbidden"
	default:
		return http.StatusOK, ""
	}
}

func (v Verdict) String() string {
	switch v {
	case RateLimited:
		return "rate_limited"
	case BotDenied:
		return "bot"
	case SpoofedBot:
		return "spoofed_bot"
	case OtherDenial:
		return "other"
	default:
		return "allowed"
	}
}

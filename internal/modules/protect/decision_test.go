package protect

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func spoofedBotResult() Result {
	return Result{Rule: "bot", Conclusion: Allow, Reason: Reason{Kind: ReasonBot, Spoofed: true}}
}

func TestVerdictMapping(t *testing.T) {
	cases := []struct {
		name     string
		decision Decision
		verdict  Verdict
		status   int
		message  string
	}{
		{
			name:     "allowed",
			decision: Decision{Conclusion: Allow},
			verdict:  Allowed,
			status:   http.StatusOK,
		},
		{
			name:     "rate limited",
			decision: Decision{Conclusion: Deny, Reason: Reason{Kind: ReasonRateLimit}},
			verdict:  RateLimited,
			status:   http.StatusTooManyRequests,
			message:  "Too Many Requests",
		},
		{
			name:     "rate limited and spoofed",
			decision: Decision{Conclusion: Deny, Reason: Reason{Kind: ReasonRateLimit}, Results: []Result{spoofedBotResult()}},
			verdict:  RateLimited,
			status:   http.StatusTooManyRequests,
			message:  "Too Many Requests",
		},
		{
			name:     "bot",
			decision: Decision{Conclusion: Deny, Reason: Reason{Kind: ReasonBot}},
			verdict:  BotDenied,
			status:   http.StatusForbidden,
			message:  "Bot access denied",
		},
		{
			name:     "shield",
			decision: Decision{Conclusion: Deny, Reason: Reason{Kind: ReasonShield}},
			verdict:  OtherDenial,
			status:   http.StatusForbidden,
			message:  "Forbidden",
		},
		{
			name:     "allowed but spoofed",
			decision: Decision{Conclusion: Allow, Results: []Result{{Rule: "shield"}, spoofedBotResult()}},
			verdict:  SpoofedBot,
			status:   http.StatusForbidden,
			message:  "Spoofed bot detected",
		},
		{
			name:     "spoofed flag on a non-bot result is ignored",
			decision: Decision{Conclusion: Allow, Results: []Result{{Rule: "x", Reason: Reason{Kind: ReasonOther, Spoofed: true}}}},
			verdict:  Allowed,
			status:   http.StatusOK,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := tc.decision.Verdict()
			assert.Equal(t, tc.verdict, v)
			status, msg := v.Status()
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.message, msg)
		})
	}
}

func TestDeniedRateLimitAlwaysWins(t *testing.T) {
	for _, spoofed := range []bool{false, true} {
		d := Decision{
			Conclusion: Deny,
			Reason:     Reason{Kind: ReasonRateLimit, Spoofed: spoofed},
			Results:    []Result{{Reason: Reason{Kind: ReasonBot, Spoofed: spoofed}}, {Reason: Reason{Kind: ReasonShield}}},
		}
		status, _ := d.Verdict().Status()
		assert.Equal(t, http.StatusTooManyRequests, status)
	}
}

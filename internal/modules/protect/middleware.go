package protect

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/georgemunganga/product-store/internal/httpx"
)

// RequestCost is the number of admission tokens each request consumes.
const RequestCost = 1

// Oracle decides whether a request is admitted. requested is the token cost.
type Oracle interface {
	Protect(ctx context.Context, r *http.Request, requested int) (Decision, error)
}

// Middleware consults oracle once per request. Rejections are written here and
// never reach the route; oracle failures go to errs instead of admitting the request.
func Middleware(oracle Oracle, errs *httpx.ErrorHandler, logger *slog.Logger, exempt ...string) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		skip[p] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := oracle.Protect(r.Context(), r, RequestCost)
			if err != nil {
				logger.ErrorContext(r.Context(), "protection oracle failed", "error", err)
				errs.Handle(w, r, fmt.Errorf("protect: %w", err))
				return
			}

			verdict := decision.Verdict()
			if verdict == Allowed {
				next.ServeHTTP(w, r)
				return
			}

			status, message := verdict.Status()
			logger.InfoContext(r.Context(), "request denied",
				"verdict", verdict.String(),
				"detail", decision.Reason.Detail,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"request_id", httpx.RequestIDFromContext(r.Context()),
			)
			httpx.RespondError(w, status, message)
		})
	}
}

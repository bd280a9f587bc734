package httpx

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/georgemunganga/product-store/internal/apperr"
	"github.com/go-chi/chi/v5/middleware"
)

// HandlerFunc is a route handler that reports failures instead of writing them.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ErrorHandler is the single place where failed requests get their response.
type ErrorHandler struct {
	logger *slog.Logger
}

func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle writes the response for err. If a response has already started it only
// logs, so a request never gets two responses.
func (e *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"error_class", kind.String(),
		"error", err.Error(),
		"request_id", RequestIDFromContext(r.Context()),
	}

	if Written(w) {
		e.logger.ErrorContext(r.Context(), "error after response started", attrs...)
		return
	}

	switch kind {
	case apperr.KindValidation, apperr.KindNotFound:
		e.logger.DebugContext(r.Context(), "request rejected", attrs...)
	default:
		e.logger.ErrorContext(r.Context(), "request failed", attrs...)
	}
	RespondError(w, kind.Status(), apperr.PublicMessage(err))
}

// Wrap adapts fn to http.HandlerFunc, routing any returned error through Handle.
func (e *ErrorHandler) Wrap(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			e.Handle(w, r, err)
		}
	}
}

// Recoverer turns panics into a 500 through Handle. It also installs the
// status-tracking writer the rest of the pipeline relies on.
func (e *ErrorHandler) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := wrapWriter(w, r)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			e.logger.ErrorContext(r.Context(), "panic recovered", "panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
			e.Handle(ww, r, fmt.Errorf("panic: %v", rec))
		}()
		next.ServeHTTP(ww, r)
	})
}

func wrapWriter(w http.ResponseWriter, r *http.Request) middleware.WrapResponseWriter {
	if ww, ok := w.(middleware.WrapResponseWriter); ok {
		return ww
	}
	return middleware.NewWrapResponseWriter(w, r.ProtoMajor)
}

// Package httpx holds the JSON response helpers, the generic error handler and the
// middleware stages shared by every route.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/georgemunganga/product-store/internal/apperr"
	"github.com/go-chi/chi/v5/middleware"
)

// Respond writes body as JSON with the given status.
func Respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// RespondError writes the {"error": message} payload used by every failure.
func RespondError(w http.ResponseWriter, status int, message string) {
	Respond(w, status, map[string]string{"error": message})
}

// Written reports whether a response has already started on w. It only knows
// about writers wrapped by the pipeline; bare writers report false.
func Written(w http.ResponseWriter) bool {
	if ww, ok := w.(middleware.WrapResponseWriter); ok {
		return ww.Status() != 0
	}
	return false
}

// DecodeStrict decodes a single JSON object into dst, rejecting unknown fields
// and trailing data. Failures are validation errors.
func DecodeStrict(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.Validation("request body is required")
		case errors.As(err, &typeErr) && typeErr.Field == "":
			return apperr.Validation("request body must be a JSON object")
		case errors.As(err, &typeErr):
			return apperr.Validation(fmt.Sprintf("%s has an invalid type", typeErr.Field))
		case strings.HasPrefix(err.Error(), "json: unknown field"):
			return apperr.Validation(strings.TrimPrefix(err.Error(), "json: "))
		default:
			return apperr.Wrap(apperr.KindValidation, "invalid request body", err)
		}
	}
	if dec.More() {
		return apperr.Validation("request body must contain a single JSON object")
	}
	return nil
}

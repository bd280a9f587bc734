package health

import (
	"context"
	"net/http"
	"time"

	"github.com/georgemunganga/product-store/internal/httpx"
	"github.com/go-chi/chi/v5"
)

const (
	LivenessPath  = "/healthz"
	ReadinessPath = "/readyz"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

// SchemaStatus reports whether the schema ensurer succeeded.
type SchemaStatus interface {
	Ready() (bool, error)
}

type Handler struct {
	db     Pinger
	schema SchemaStatus
}

func NewHandler(db Pinger, schema SchemaStatus) *Handler {
	return &Handler{db: db, schema: schema}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get(LivenessPath, h.live)
	r.Get(ReadinessPath, h.ready)
}

func (h *Handler) live(w http.ResponseWriter, r *http.Request) {
	httpx.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	if ok, err := h.schema.Ready(); !ok {
		reason := "not ensured"
		if err != nil {
			reason = err.Error()
		}
		httpx.Respond(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "schema": reason})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		httpx.Respond(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "unreachable"})
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]string{"status": "ready"})
}

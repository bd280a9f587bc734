package catalog

import (
	"net/http"
	"strconv"

	"github.com/georgemunganga/product-store/internal/httpx"
	"github.com/go-chi/chi/v5"
)

// Handler exposes catalog HTTP endpoints.
type Handler struct {
	service Service
	errs    *httpx.ErrorHandler
}

func NewHandler(service Service, errs *httpx.ErrorHandler) *Handler {
	return &Handler{service: service, errs: errs}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.errs.Wrap(h.listProducts))
		r.Post("/", h.errs.Wrap(h.createProduct))
		r.Get("/{id}", h.errs.Wrap(h.getProduct))
		r.Put("/{id}", h.errs.Wrap(h.updateProduct))
		r.Delete("/{id}", h.errs.Wrap(h.deleteProduct))
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) error {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		return err
	}
	httpx.Respond(w, http.StatusOK, products)
	return nil
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) error {
	var in ProductInput
	if err := httpx.DecodeStrict(r.Body, &in); err != nil {
		return err
	}
	p, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		return err
	}
	httpx.Respond(w, http.StatusCreated, p)
	return nil
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := productID(r)
	if err != nil {
		return err
	}
	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		return err
	}
	httpx.Respond(w, http.StatusOK, p)
	return nil
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := productID(r)
	if err != nil {
		return err
	}
	var in ProductInput
	if err := httpx.DecodeStrict(r.Body, &in); err != nil {
		return err
	}
	p, err := h.service.UpdateProduct(r.Context(), id, in)
	if err != nil {
		return err
	}
	httpx.Respond(w, http.StatusOK, p)
	return nil
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := productID(r)
	if err != nil {
		return err
	}
	p, err := h.service.DeleteProduct(r.Context(), id)
	if err != nil {
		return err
	}
	httpx.Respond(w, http.StatusOK, p)
	return nil
}

// productID parses the {id} path segment. Ids the store could never have
// assigned are reported as not found.
func productID(r *http.Request) (int64, error) {
	// The id column is SERIAL (int4); larger values can never exist.
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
	if err != nil || id <= 0 {
		return 0, ErrProductNotFound
	}
	return id, nil
}

// Package server assembles the HTTP pipeline: every request passes the same
// middleware stages, in the same order, before reaching a route.
package server

import (
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/georgemunganga/product-store/internal/config"
	"github.com/georgemunganga/product-store/internal/httpx"
	"github.com/georgemunganga/product-store/internal/modules/catalog"
	"github.com/georgemunganga/product-store/internal/modules/health"
	"github.com/georgemunganga/product-store/internal/modules/protect"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators the router is built from.
type Deps struct {
	Config  config.ServerConfig
	Logger  *slog.Logger
	Oracle  protect.Oracle
	Catalog catalog.Service
	DB      health.Pinger
	Schema  health.SchemaStatus
}

// New returns the root handler.
func New(d Deps) http.Handler {
	errs := httpx.NewErrorHandler(d.Logger)

	router := chi.NewRouter()
	router.Use(errs.Recoverer)
	router.Use(httpx.RequestID)
	router.Use(middleware.RealIP)
	router.Use(httpx.ParseJSON)
	router.Use(httpx.SecureHeaders(d.Config.IsProduction()))
	router.Use(httpx.CORS())
	router.Use(httpx.AccessLog(d.Logger))
	router.Use(protect.Middleware(d.Oracle, errs, d.Logger, health.LivenessPath, health.ReadinessPath))

	health.NewHandler(d.DB, d.Schema).RegisterRoutes(router)
	catalog.NewHandler(d.Catalog, errs).RegisterRoutes(router)

	if d.Config.IsProduction() {
		router.NotFound(spaFallback(d.Config.StaticDir))
	} else {
		router.NotFound(notFound)
	}
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return router
}

func notFound(w http.ResponseWriter, r *http.Request) {
	httpx.RespondError(w, http.StatusNotFound, "Not Found")
}

// spaFallback serves built frontend assets from dir and answers any other GET
// with index.html so client-side routes survive a reload. API paths keep their
// JSON 404.
func spaFallback(dir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			notFound(w, r)
			return
		}
		clean := path.Clean("/" + r.URL.Path)
		if clean == "/api" || strings.HasPrefix(clean, "/api/") {
			notFound(w, r)
			return
		}
		if info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean))); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		if _, err := os.Stat(index); err != nil {
			notFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}

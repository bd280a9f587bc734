package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/georgemunganga/product-store/internal/bootstrap"
	"github.com/georgemunganga/product-store/internal/config"
	"github.com/georgemunganga/product-store/internal/database"
	"github.com/georgemunganga/product-store/internal/modules/catalog"
	"github.com/georgemunganga/product-store/internal/modules/protect"
	"github.com/georgemunganga/product-store/internal/obs"
	"github.com/georgemunganga/product-store/internal/server"
	_ "github.com/lib/pq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger(os.Stderr, "error").Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(os.Stdout, cfg.LogLevel)
	logger.Info("service_starting", "mode", cfg.Server.Mode, "port", cfg.Server.Port)

	db := database.Open(cfg.Database)
	defer db.Close()

	// A failed ensure leaves the server running; /readyz reports it.
	ensurer := bootstrap.NewEnsurer(db, logger)
	ensureCtx, cancelEnsure := context.WithTimeout(context.Background(), 15*time.Second)
	_ = ensurer.Ensure(ensureCtx)
	cancelEnsure()

	// ── Admission ───────────────────────────────────────────
	var oracle protect.Oracle
	if cfg.Protect.Remote() {
		oracle = protect.NewRemoteOracle(cfg.Protect.URL, cfg.Protect.Key, logger)
		logger.Info("protection_oracle", "kind", "remote", "url", cfg.Protect.URL)
	} else {
		oracle = protect.NewLocalOracle(protect.LocalOptions{
			RefillRate: cfg.Protect.RefillRate,
			Interval:   cfg.Protect.Interval,
			Capacity:   cfg.Protect.Capacity,
		})
		logger.Info("protection_oracle", "kind", "local",
			"refill_rate", cfg.Protect.RefillRate, "interval", cfg.Protect.Interval.String(), "capacity", cfg.Protect.Capacity)
	}

	// ── Catalog ─────────────────────────────────────────────
	catalogRepo := catalog.NewPostgresRepository(db)
	catalogService := catalog.NewService(catalogRepo)

	handler := server.New(server.Deps{
		Config:  cfg.Server,
		Logger:  logger,
		Oracle:  oracle,
		Catalog: catalogService,
		DB:      db,
		Schema:  ensurer.Status(),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	logger.Info("shutdown_signal", "signal", s.String())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http_shutdown_error", "error", err)
	}
	logger.Info("service_stopped")
}

// Package bootstrap makes sure the schema exists before the server starts taking traffic.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/georgemunganga/product-store/internal/database"
)

// Execer is the part of the database handle the ensurer needs.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Status is the outcome of the last Ensure. The zero value means the schema
// has not been ensured yet.
type Status struct {
	mu      sync.RWMutex
	ensured bool
	err     error
}

// Ready reports whether the schema was ensured, and the failure if it was not.
func (s *Status) Ready() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ensured && s.err == nil {
		return false, errNotRun
	}
	return s.ensured, s.err
}

func (s *Status) record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensured = err == nil
	s.err = err
}

var errNotRun = errors.New("schema not ensured yet")

type Ensurer struct {
	db     Execer
	status *Status
	logger *slog.Logger
}

func NewEnsurer(db Execer, logger *slog.Logger) *Ensurer {
	return &Ensurer{db: db, status: &Status{}, logger: logger}
}

func (e *Ensurer) Status() *Status { return e.status }

// Ensure runs the idempotent products DDL. Failure is logged and recorded but
// never stops startup; the error is returned for callers that want it.
func (e *Ensurer) Ensure(ctx context.Context) error {
	ddl, err := database.ProductsDDL()
	if err == nil {
		_, err = e.db.ExecContext(ctx, ddl)
	}
	e.status.record(err)
	if err != nil {
		e.logger.ErrorContext(ctx, "error creating products table", "error", err)
		return fmt.Errorf("ensuring products table: %w", err)
	}
	e.logger.InfoContext(ctx, "products table ensured")
	return nil
}

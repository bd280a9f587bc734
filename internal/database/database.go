// Package database provides the shared Postgres handle used by every repository.
package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/georgemunganga/product-store/internal/apperr"
	"github.com/georgemunganga/product-store/internal/config"
	"github.com/lib/pq"
)

// ErrConnection marks failures to reach the store, including missing configuration.
var ErrConnection = apperr.New(apperr.KindUnavailable, "database connection unavailable")

var errIncompleteConfig = errors.New("database host, name, user and password must be configured")

// Row is the result of QueryRowContext.
type Row interface {
	Scan(dest ...any) error
}

// Handle executes parameterized statements against Postgres. It is safe for
// concurrent use.
type Handle struct {
	db  *sql.DB
	err error
}

// Open builds a handle from cfg. It never fails: when cfg is incomplete or the
// driver rejects the DSN, every call on the returned handle fails with ErrConnection.
func Open(cfg config.DatabaseConfig) *Handle {
	if !cfg.Complete() {
		return &Handle{err: errIncompleteConfig}
	}
	db, err := sql.Open("postgres", DSN(cfg))
	if err != nil {
		return &Handle{err: err}
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return &Handle{db: db}
}

// New wraps an existing *sql.DB, for tests and tools that open their own.
func New(db *sql.DB) *Handle { return &Handle{db: db} }

// DSN renders the connection URL for cfg.
func DSN(cfg config.DatabaseConfig) string {
	host := cfg.Host
	if cfg.Port != 0 {
		host = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   host,
		Path:   "/" + cfg.Name,
	}
	q := url.Values{}
	q.Set("sslmode", cfg.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func (h *Handle) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if h.err != nil {
		return nil, classify(h.err)
	}
	res, err := h.db.ExecContext(ctx, query, args...)
	return res, classify(err)
}

func (h *Handle) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if h.err != nil {
		return nil, classify(h.err)
	}
	rows, err := h.db.QueryContext(ctx, query, args...)
	return rows, classify(err)
}

func (h *Handle) QueryRowContext(ctx context.Context, query string, args ...any) Row {
	if h.err != nil {
		return errRow{err: h.err}
	}
	return row{h.db.QueryRowContext(ctx, query, args...)}
}

func (h *Handle) PingContext(ctx context.Context) error {
	if h.err != nil {
		return classify(h.err)
	}
	return classify(h.db.PingContext(ctx))
}

func (h *Handle) Close() error {
	if h.db == nil {
		return nil
	}
	return h.db.Close()
}

type row struct{ *sql.Row }

func (r row) Scan(dest ...any) error { return classify(r.Row.Scan(dest...)) }

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return classify(r.err) }

// classify wraps errors that mean the store could not be reached with
// ErrConnection. sql.ErrNoRows and statement errors pass through unchanged.
func classify(err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if isConnectionError(err) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return err
}

func isConnectionError(err error) bool {
	if errors.Is(err, errIncompleteConfig) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08: connection exception. Class 28: invalid authorization.
		class := pqErr.Code.Class()
		return class == "08" || class == "28"
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

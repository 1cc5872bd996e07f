// Package pg provides the shared Postgres connection pool used by the
// procedure-code store, the audit store, and the confirmation store.
package pg

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers the "postgres" driver sqlx.Connect uses
	"github.com/sirupsen/logrus"

	apperrors "github.com/smilearc/casegen/internal/errors"
)

// Pool wraps the sqlx handle shared by the procedure-code, audit, and
// confirmation stores. Every store in this tree queries exclusively
// through sqlx (struct-scanning reads, QueryRowxContext writes); there
// is no separate raw-driver query path, so there is only one handle
// here to open and close.
type Pool struct {
	SQLX   *sqlx.DB
	logger *logrus.Entry
}

// Open establishes the sqlx handle against dsn and verifies it with a
// ping. Not safe to call concurrently with itself; the returned Pool
// is.
func Open(ctx context.Context, dsn string, logger *logrus.Logger) (*Pool, error) {
	if dsn == "" {
		return nil, apperrors.NewValidationError("DATABASE_URL is required")
	}
	if logger == nil {
		logger = logrus.New()
	}

	sqlxDB, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, apperrors.NewDatabaseError("open sqlx connection", err)
	}

	if err := sqlxDB.PingContext(ctx); err != nil {
		sqlxDB.Close()
		return nil, apperrors.NewDatabaseError("ping database", err)
	}

	return &Pool{
		SQLX:   sqlxDB,
		logger: logger.WithField("component", "storage.pg"),
	}, nil
}

// Close releases the underlying handle. Safe to call once.
func (p *Pool) Close() {
	if p == nil || p.SQLX == nil {
		return
	}
	if err := p.SQLX.Close(); err != nil {
		p.logger.WithError(err).Warn("closing sqlx handle")
	}
}

// HealthCheck reports whether the pool can reach the database, used by
// the /health endpoint.
func (p *Pool) HealthCheck(ctx context.Context) error {
	if p == nil || p.SQLX == nil {
		return fmt.Errorf("storage: pool not initialized")
	}
	return p.SQLX.PingContext(ctx)
}

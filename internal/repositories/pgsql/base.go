// Package pgsql implements the core's ports (C8) against PostgreSQL
// via jackc/pgx/v5, following the teacher's BaseRepository-wraps-a-pool
// layout (internal/repositories/database/pgsql) and its unique-
// violation detection convention (errors.As against *pgconn.PgError,
// code "23505").
package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/txledger/internal/apperrors"
	"github.com/SscSPs/txledger/internal/core/ports"
)

const uniqueViolationCode = "23505"

// Store is the pgxpool-backed implementation of ports.Store. It also
// implements JournalStore, AccountStore, LedgerStore, OutboxStore, and
// AckStore on the same receiver, the way the teacher's BaseRepository
// is embedded by every concrete repository sharing one pool.
type Store struct {
	Pool *pgxpool.Pool
	// DSN backs EnsureSchema's golang-migrate run, which needs a
	// database/sql connection distinct from the pgx pool.
	DSN string
	// MigrationsPath points at the migration files, "file://migrations"
	// by default.
	MigrationsPath string
}

// New wraps an already-connected pool, or nil when the caller assigns
// Pool later. Pool construction lives in internal/platform/database
// and runs eagerly: NewPgxPool connects and pings once, and nothing
// here creates or re-checks the pool lazily.
func New(pool *pgxpool.Pool, dsn, migrationsPath string) *Store {
	if migrationsPath == "" {
		migrationsPath = "file://migrations"
	}
	return &Store{Pool: pool, DSN: dsn, MigrationsPath: migrationsPath}
}

func (s *Store) Begin(ctx context.Context) (ports.Tx, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return tx, nil
}

func (s *Store) Commit(ctx context.Context, tx ports.Tx) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	return pgxTx.Commit(ctx)
}

func (s *Store) Rollback(ctx context.Context, tx ports.Tx) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	err = pgxTx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// IsDuplicateKeyErr reports whether err is a unique-constraint
// violation, tagged via *pgconn.PgError rather than string-matching
// the message, per spec.md §9.
func (s *Store) IsDuplicateKeyErr(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func asTx(tx ports.Tx) (pgx.Tx, error) {
	pgxTx, ok := tx.(pgx.Tx)
	if !ok {
		return nil, fmt.Errorf("%w: not a pgx transaction", apperrors.ErrInternal)
	}
	return pgxTx, nil
}

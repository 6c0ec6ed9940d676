// Package ports defines the abstract store surface the core requires
// (C8): multi-object ACID transactions, predicate-guarded updates,
// unique-index conflict detection, atomic claim, and ordered scans.
// Nothing in this package names a concrete storage engine; the pgsql
// package under internal/repositories/pgsql implements it.
package ports

import (
	"context"
	"time"

	"github.com/SscSPs/txledger/internal/core/domain"
)

// Tx is an opaque handle to one in-flight transaction. Callers never
// inspect it; they only pass it back into the Store/repository methods
// that opened it.
type Tx interface{}

// Store is the transaction boundary and health/duplicate-detection
// surface. The pgsql implementation holds one process-wide connection
// pool that main creates eagerly at startup; it is not initialized
// lazily.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	Commit(ctx context.Context, tx Tx) error
	Rollback(ctx context.Context, tx Tx) error

	// IsDuplicateKeyErr reports whether err represents a unique-index
	// collision, as a tagged classification rather than string
	// matching, per spec.md §9.
	IsDuplicateKeyErr(err error) bool

	// HealthCheck reports whether the store is reachable, for GET /health.
	HealthCheck(ctx context.Context) error

	// EnsureSchema performs startup-time idempotent schema/index
	// creation (§4.8).
	EnsureSchema(ctx context.Context) error
}

// JournalStore is the journal-header half of C4's transaction.
type JournalStore interface {
	// FindJournalByIdempotencyKeyOrID implements the idempotency
	// probe (§4.4 step 1). Returns apperrors.ErrNotFound if no
	// journal matches either key.
	FindJournalByIdempotencyKeyOrID(ctx context.Context, tx Tx, idempotencyKey, journalID string) (*domain.Journal, error)

	// InsertJournalPending inserts the header with status=pending.
	// A unique-index collision surfaces as a plain error the caller
	// tests with Store.IsDuplicateKeyErr, never a sentinel baked in
	// here.
	InsertJournalPending(ctx context.Context, tx Tx, j domain.Journal) error

	MarkJournalPosted(ctx context.Context, tx Tx, journalID string, postedAt time.Time) error
}

// AccountStore is the per-line account-mutation half of C4's transaction.
type AccountStore interface {
	// UpsertAccount creates the account (currency from the caller,
	// buckets all zero) if absent, and always returns the persisted
	// row — including its currency, so the caller can detect a
	// currency mismatch before attempting the guarded update (the
	// split chosen in SPEC_FULL's open-question resolution).
	UpsertAccount(ctx context.Context, tx Tx, accountID, currency string, now time.Time) (*domain.Account, error)

	// ApplyBucketDelta performs the predicate-guarded update of
	// §4.4 step 3d: moves amountMinor out of fromBucket (if non-nil)
	// and into toBucket (if non-nil). When fromBucket is non-nil and
	// systemOverdraft is false, the update additionally requires
	// buckets[fromBucket] >= amountMinor; if the predicate fails to
	// match any row, implementations return apperrors.ErrInsufficientFunds.
	ApplyBucketDelta(ctx context.Context, tx Tx, accountID string, from, to *domain.Bucket, amountMinor int64, systemOverdraft bool, now time.Time) error

	// TouchAccount updates only updatedAt, for the fromBucket==toBucket
	// no-op line case (§4.4 step 3b).
	TouchAccount(ctx context.Context, tx Tx, accountID string, now time.Time) error

	// LoadAccountsByIDs loads the post-image of every given account,
	// for the post-apply invariant sweep (§4.4 step 4).
	LoadAccountsByIDs(ctx context.Context, tx Tx, ids []string) ([]domain.Account, error)
}

// LedgerStore is the append-only audit trail plus its read projection.
type LedgerStore interface {
	AppendEntry(ctx context.Context, tx Tx, entry domain.LedgerEntry) error

	// History returns entries for accountID (optionally filtered by
	// currency), ordered ascending by createdAt, for C6.
	History(ctx context.Context, accountID, currency string) ([]domain.LedgerEntry, error)
}

// OutboxStore backs C5's claim/dispatch/reschedule loop.
type OutboxStore interface {
	Enqueue(ctx context.Context, tx Tx, item domain.OutboxItem) error

	// ClaimOne atomically finds the single pending item due now,
	// ordered (nextAttemptAt asc, createdAt asc, id asc), and
	// transitions it to processing in the same step. Returns
	// apperrors.ErrNotFound if none is due.
	ClaimOne(ctx context.Context, now time.Time) (*domain.OutboxItem, error)

	// MarkSent transitions processing -> sent. Returns
	// apperrors.ErrInternal if the item was no longer processing.
	MarkSent(ctx context.Context, id int64, now time.Time) error

	// Reschedule transitions processing -> pending with the given
	// attempts and nextAttemptAt.
	Reschedule(ctx context.Context, id int64, attempts int, nextAttemptAt, now time.Time) error

	// QueueDepths reports counts by status, for GET /health.
	QueueDepths(ctx context.Context) (pending int, pendingRetries int, err error)
}

// AckStore is C7's idempotent ack sink.
type AckStore interface {
	// InsertAck inserts an ack row. A unique-index collision on
	// journalID is the intended idempotency path: callers test it
	// with Store.IsDuplicateKeyErr and treat it as success.
	InsertAck(ctx context.Context, ack domain.Ack) error
}

package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/txledger/internal/apperrors"
	"github.com/SscSPs/txledger/internal/core/domain"
	"github.com/SscSPs/txledger/internal/core/ports"
)

// Enqueue inserts one outbox row in the same transaction as the
// journal post (§4.4 step 5), so delivery is never lost if the
// process dies before the commit.
func (s *Store) Enqueue(ctx context.Context, tx ports.Tx, item domain.OutboxItem) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	_, err = pgxTx.Exec(ctx, `
		INSERT INTO outbox (journal_id, topic, payload, status, attempts, next_attempt_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, item.JournalID, item.Topic, item.Payload, domain.OutboxPending, item.Attempts, item.NextAttemptAt, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("enqueue outbox item for journal %s: %w", item.JournalID, err)
	}
	return nil
}

// ClaimOne atomically finds and locks the oldest-due pending item and
// flips it to processing in one statement, grounded on the teacher's
// FindAccountsByIDsForUpdate row-locking pattern generalized from
// "lock rows" to "lock and claim the single oldest row", the standard
// Postgres queue idiom (SELECT ... FOR UPDATE SKIP LOCKED feeding an
// UPDATE ... RETURNING).
func (s *Store) ClaimOne(ctx context.Context, now time.Time) (*domain.OutboxItem, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE outbox
		SET status = $2, updated_at = $3
		WHERE id = (
			SELECT id FROM outbox
			WHERE status = $1 AND next_attempt_at <= $3
			ORDER BY next_attempt_at ASC, created_at ASC, id ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, journal_id, topic, payload, status, attempts, next_attempt_at, created_at, updated_at
	`, domain.OutboxPending, domain.OutboxProcessing, now)

	var item domain.OutboxItem
	if err := row.Scan(&item.ID, &item.JournalID, &item.Topic, &item.Payload, &item.Status, &item.Attempts, &item.NextAttemptAt, &item.CreatedAt, &item.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("claim outbox item: %w", err)
	}
	return &item, nil
}

// MarkSent transitions processing -> sent.
func (s *Store) MarkSent(ctx context.Context, id int64, now time.Time) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE outbox SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`, id, domain.OutboxSent, now, domain.OutboxProcessing)
	if err != nil {
		return fmt.Errorf("mark outbox item %d sent: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: outbox item %d was not processing", apperrors.ErrInternal, id)
	}
	return nil
}

// Reschedule transitions processing -> pending with the caller's
// recomputed attempts/nextAttemptAt, per §4.5's retry-with-backoff.
func (s *Store) Reschedule(ctx context.Context, id int64, attempts int, nextAttemptAt, now time.Time) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE outbox
		SET status = $2, attempts = $3, next_attempt_at = $4, updated_at = $5
		WHERE id = $1
	`, id, domain.OutboxPending, attempts, nextAttemptAt, now)
	if err != nil {
		return fmt.Errorf("reschedule outbox item %d: %w", id, err)
	}
	return nil
}

// QueueDepths reports the pending count split by whether it has ever
// failed, for GET /health's outboxQueue/pendingRetries fields.
func (s *Store) QueueDepths(ctx context.Context) (pending int, pendingRetries int, err error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE status = $1 AND attempts = 0),
			count(*) FILTER (WHERE status = $1 AND attempts > 0)
		FROM outbox
	`, domain.OutboxPending)
	if err := row.Scan(&pending, &pendingRetries); err != nil {
		return 0, 0, fmt.Errorf("query outbox queue depths: %w", err)
	}
	return pending, pendingRetries, nil
}

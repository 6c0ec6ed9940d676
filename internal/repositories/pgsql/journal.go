package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/txledger/internal/apperrors"
	"github.com/SscSPs/txledger/internal/core/domain"
	"github.com/SscSPs/txledger/internal/core/ports"
)

// FindJournalByIdempotencyKeyOrID implements the idempotency probe
// (§4.4 step 1): either key colliding means "already posted".
func (s *Store) FindJournalByIdempotencyKeyOrID(ctx context.Context, tx ports.Tx, idempotencyKey, journalID string) (*domain.Journal, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	row := pgxTx.QueryRow(ctx, `
		SELECT journal_id, idempotency_key, status, created_at
		FROM journals
		WHERE idempotency_key = $1 OR journal_id = $2
		LIMIT 1
	`, idempotencyKey, journalID)

	var j domain.Journal
	if err := row.Scan(&j.JournalID, &j.IdempotencyKey, &j.Status, &j.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	return &j, nil
}

// InsertJournalPending inserts the journal header. A unique-index
// collision (on journal_id or idempotency_key) surfaces as a plain
// error; the caller classifies it with Store.IsDuplicateKeyErr.
func (s *Store) InsertJournalPending(ctx context.Context, tx ports.Tx, j domain.Journal) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	_, err = pgxTx.Exec(ctx, `
		INSERT INTO journals (journal_id, idempotency_key, status, created_at)
		VALUES ($1, $2, $3, $4)
	`, j.JournalID, j.IdempotencyKey, domain.JournalPending, j.CreatedAt)
	return err
}

// MarkJournalPosted transitions the header to posted (§4.4 step 6).
func (s *Store) MarkJournalPosted(ctx context.Context, tx ports.Tx, journalID string, postedAt time.Time) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	_, err = pgxTx.Exec(ctx, `
		UPDATE journals SET status = $2 WHERE journal_id = $1
	`, journalID, domain.JournalPosted)
	_ = postedAt // journals carry no posted_at column per spec.md §3
	return err
}

package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/txledger/internal/core/domain"
	"github.com/SscSPs/txledger/internal/core/ports"
)

// AppendEntry writes one immutable audit row per applied line (§4.4
// step 3e), grounded on the teacher's PgxJournalRepository inserting
// one transaction-line row per journal line inside the same tx as the
// balance update.
func (s *Store) AppendEntry(ctx context.Context, tx ports.Tx, entry domain.LedgerEntry) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	_, err = pgxTx.Exec(ctx, `
		INSERT INTO ledger_entries
			(journal_id, line_no, account_id, from_bucket, to_bucket, side, transition, amount, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		entry.JournalID, entry.LineNo, entry.AccountID,
		nullableBucket(entry.FromBucket), nullableBucket(entry.ToBucket),
		entry.Side, entry.Transition, entry.Amount, entry.Currency, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append ledger entry for journal %s line %d: %w", entry.JournalID, entry.LineNo, err)
	}
	return nil
}

func nullableBucket(b *domain.Bucket) interface{} {
	if b == nil {
		return nil
	}
	return *b
}

// History returns an account's entries oldest-first, optionally
// filtered by currency, for C6's projection. It reads outside any
// open transaction — history is a read-only reporting path, not part
// of the posting invariant.
func (s *Store) History(ctx context.Context, accountID, currency string) ([]domain.LedgerEntry, error) {
	var rows pgx.Rows
	var err error

	if currency == "" {
		rows, err = s.Pool.Query(ctx, `
			SELECT journal_id, line_no, account_id, from_bucket, to_bucket, side, transition, amount, currency, created_at
			FROM ledger_entries
			WHERE account_id = $1
			ORDER BY created_at ASC, line_no ASC
		`, accountID)
	} else {
		rows, err = s.Pool.Query(ctx, `
			SELECT journal_id, line_no, account_id, from_bucket, to_bucket, side, transition, amount, currency, created_at
			FROM ledger_entries
			WHERE account_id = $1 AND currency = $2
			ORDER BY created_at ASC, line_no ASC
		`, accountID, currency)
	}
	if err != nil {
		return nil, fmt.Errorf("query history for %s: %w", accountID, err)
	}
	defer rows.Close()

	var out []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var fromBucket, toBucket *domain.Bucket
		if err := rows.Scan(&e.JournalID, &e.LineNo, &e.AccountID, &fromBucket, &toBucket, &e.Side, &e.Transition, &e.Amount, &e.Currency, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.FromBucket = fromBucket
		e.ToBucket = toBucket
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

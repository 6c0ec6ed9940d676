package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/txledger/internal/apperrors"
	"github.com/SscSPs/txledger/internal/core/domain"
	"github.com/SscSPs/txledger/internal/core/ports"
)

// UpsertAccount creates the account on first reference (currency from
// the caller, all buckets zero) and always returns the persisted row,
// so the caller can compare its currency against the line before
// attempting the guarded update (§4.4 step 3a).
func (s *Store) UpsertAccount(ctx context.Context, tx ports.Tx, accountID, currency string, now time.Time) (*domain.Account, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	_, err = pgxTx.Exec(ctx, `
		INSERT INTO accounts (account_id, currency, bucket_available, bucket_pending, bucket_escrow, bucket_outflow, created_at, updated_at)
		VALUES ($1, $2, 0, 0, 0, 0, $3, $3)
		ON CONFLICT (account_id) DO NOTHING
	`, accountID, currency, now)
	if err != nil {
		return nil, fmt.Errorf("upsert account %s: %w", accountID, err)
	}

	row := pgxTx.QueryRow(ctx, `
		SELECT account_id, currency, bucket_available, bucket_pending, bucket_escrow, bucket_outflow, created_at, updated_at
		FROM accounts WHERE account_id = $1
		FOR UPDATE
	`, accountID)

	var a domain.Account
	var available, pending, escrow, outflow int64
	if err := row.Scan(&a.ID, &a.Currency, &available, &pending, &escrow, &outflow, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, fmt.Errorf("load account %s: %w", accountID, err)
	}
	a.Buckets = map[domain.Bucket]int64{
		domain.BucketAvailable: available,
		domain.BucketPending:   pending,
		domain.BucketEscrow:    escrow,
		domain.BucketOutflow:   outflow,
	}
	return &a, nil
}

// ApplyBucketDelta performs the predicate-guarded update of §4.4 step
// 3d. When fromBucket is present and systemOverdraft is false, the
// WHERE clause additionally requires the source bucket to already
// hold at least amountMinor; a zero-row UPDATE is reported as
// apperrors.ErrInsufficientFunds. The updated row itself is not
// returned.
func (s *Store) ApplyBucketDelta(ctx context.Context, tx ports.Tx, accountID string, from, to *domain.Bucket, amountMinor int64, systemOverdraft bool, now time.Time) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}

	setClauses := ""
	args := []interface{}{accountID, now}
	argN := 3
	guardClause := ""

	if from != nil {
		col := bucketColumn(*from)
		setClauses += fmt.Sprintf("%s = %s - $%d, ", col, col, argN)
		args = append(args, amountMinor)
		argN++
		if !systemOverdraft {
			guardClause = fmt.Sprintf(" AND %s >= $%d", col, argN-1)
		}
	}
	if to != nil {
		col := bucketColumn(*to)
		setClauses += fmt.Sprintf("%s = %s + $%d, ", col, col, argN)
		args = append(args, amountMinor)
		argN++
	}

	query := fmt.Sprintf(`
		UPDATE accounts
		SET %s updated_at = $2
		WHERE account_id = $1%s
	`, setClauses, guardClause)

	tag, err := pgxTx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("apply bucket delta for account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrInsufficientFunds
	}
	return nil
}

func bucketColumn(b domain.Bucket) string {
	switch b {
	case domain.BucketAvailable:
		return "bucket_available"
	case domain.BucketPending:
		return "bucket_pending"
	case domain.BucketEscrow:
		return "bucket_escrow"
	case domain.BucketOutflow:
		return "bucket_outflow"
	default:
		return "bucket_available"
	}
}

// TouchAccount updates only updated_at, for the fromBucket==toBucket
// no-op line case.
func (s *Store) TouchAccount(ctx context.Context, tx ports.Tx, accountID string, now time.Time) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	_, err = pgxTx.Exec(ctx, `UPDATE accounts SET updated_at = $2 WHERE account_id = $1`, accountID, now)
	return err
}

// LoadAccountsByIDs loads the post-image of every given account for
// the post-apply invariant sweep (§4.4 step 4), locking rows the same
// way the teacher's FindAccountsByIDsForUpdate does.
func (s *Store) LoadAccountsByIDs(ctx context.Context, tx ports.Tx, ids []string) ([]domain.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	rows, err := pgxTx.Query(ctx, `
		SELECT account_id, currency, bucket_available, bucket_pending, bucket_escrow, bucket_outflow, created_at, updated_at
		FROM accounts WHERE account_id = ANY($1)
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("load accounts by ids: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var a domain.Account
		var available, pending, escrow, outflow int64
		if err := rows.Scan(&a.ID, &a.Currency, &available, &pending, &escrow, &outflow, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Buckets = map[domain.Bucket]int64{
			domain.BucketAvailable: available,
			domain.BucketPending:   pending,
			domain.BucketEscrow:    escrow,
			domain.BucketOutflow:   outflow,
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Package services implements the core operations (C4-C7): the
// journal poster, the outbox dispatcher, the account-history query,
// and the event-ingress ack sink. Grounded on the teacher's
// internal/core/services package layout and its
// PgxJournalRepository.SaveJournal transaction shape, generalized from
// a fixed debit/credit sign table to the bucket state machine (C2) and
// from an unconditional balance update to a predicate-guarded one.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/SscSPs/txledger/internal/apperrors"
	"github.com/SscSPs/txledger/internal/core/domain"
	"github.com/SscSPs/txledger/internal/core/ports"
	"github.com/SscSPs/txledger/internal/core/validation"
	"github.com/SscSPs/txledger/internal/money"
)

// JournalPoster implements C4's post(journal) -> {journalId} contract.
type JournalPoster struct {
	store     ports.Store
	journals  ports.JournalStore
	accounts  ports.AccountStore
	ledger    ports.LedgerStore
	outbox    ports.OutboxStore
	overdraft map[string]bool
	chaosProb float64
	logger    *slog.Logger
	now       func() time.Time
}

// NewJournalPoster wires the store ports together. overdraftAccounts
// is the configured SYSTEM_OVERDRAFT set (spec.md §9); chaosProb is
// the configured chaos-hook probability, normally 0 in production.
func NewJournalPoster(store ports.Store, journals ports.JournalStore, accounts ports.AccountStore, ledger ports.LedgerStore, outbox ports.OutboxStore, overdraftAccounts []string, chaosProb float64, logger *slog.Logger) *JournalPoster {
	overdraft := make(map[string]bool, len(overdraftAccounts))
	for _, id := range overdraftAccounts {
		overdraft[id] = true
	}
	return &JournalPoster{
		store:     store,
		journals:  journals,
		accounts:  accounts,
		ledger:    ledger,
		outbox:    outbox,
		overdraft: overdraft,
		chaosProb: chaosProb,
		logger:    logger,
		now:       time.Now,
	}
}

// PostJournal is the parsed, preflight-validated request C4 operates
// on; the HTTP handler builds this from dto.PostJournalRequest via
// validation.ValidateShape/ParseLines/Preflight before calling Post.
type PostJournal struct {
	JournalID      string
	IdempotencyKey string
	Lines          []validation.ParsedLine
}

// Post runs the transactional posting algorithm of spec.md §4.4.
func (p *JournalPoster) Post(ctx context.Context, req PostJournal) (journalID string, err error) {
	start := p.now()
	logger := p.logger.With(
		slog.String("journal_id", req.JournalID),
		slog.String("idempotency_key", req.IdempotencyKey),
	)
	defer func() {
		class := "ok"
		if err != nil {
			class = classify(err)
		}
		logger.Info("post journal finished",
			slog.String("class", class),
			slog.Duration("elapsed", p.now().Sub(start)),
		)
	}()

	tx, err := p.store.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: begin transaction: %v", apperrors.ErrInternal, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = p.store.Rollback(ctx, tx)
		}
	}()

	// Step 1: idempotency probe.
	if existing, probeErr := p.journals.FindJournalByIdempotencyKeyOrID(ctx, tx, req.IdempotencyKey, req.JournalID); probeErr == nil {
		logger.Info("idempotent hit", slog.String("existing_journal_id", existing.JournalID))
		if commitErr := p.store.Commit(ctx, tx); commitErr != nil {
			return "", fmt.Errorf("%w: commit read-only idempotency probe: %v", apperrors.ErrInternal, commitErr)
		}
		committed = true
		return existing.JournalID, nil
	} else if !errors.Is(probeErr, apperrors.ErrNotFound) {
		return "", fmt.Errorf("%w: idempotency probe: %v", apperrors.ErrInternal, probeErr)
	}

	// Step 2: header insert.
	now := p.now()
	insertErr := p.journals.InsertJournalPending(ctx, tx, domain.Journal{
		JournalID:      req.JournalID,
		IdempotencyKey: req.IdempotencyKey,
		Status:         domain.JournalPending,
		CreatedAt:      now,
	})
	if insertErr != nil {
		if p.store.IsDuplicateKeyErr(insertErr) {
			// A unique-index violation aborts the current Postgres
			// transaction: every later statement on tx would fail with
			// 25P02 ("current transaction is aborted"). Roll tx back
			// and re-probe on a fresh transaction instead of reusing
			// the poisoned one.
			_ = p.store.Rollback(ctx, tx)
			committed = true

			findTx, beginErr := p.store.Begin(ctx)
			if beginErr != nil {
				return "", fmt.Errorf("%w: begin re-probe transaction: %v", apperrors.ErrInternal, beginErr)
			}
			existing, findErr := p.journals.FindJournalByIdempotencyKeyOrID(ctx, findTx, req.IdempotencyKey, req.JournalID)
			if findErr != nil {
				_ = p.store.Rollback(ctx, findTx)
				return "", fmt.Errorf("%w: header insert collided but no existing journal found: %v", apperrors.ErrInternal, findErr)
			}
			logger.Info("idempotent hit on header insert collision", slog.String("existing_journal_id", existing.JournalID))
			if commitErr := p.store.Commit(ctx, findTx); commitErr != nil {
				return "", fmt.Errorf("%w: commit after collision: %v", apperrors.ErrInternal, commitErr)
			}
			return existing.JournalID, nil
		}
		return "", fmt.Errorf("%w: header insert: %v", apperrors.ErrInternal, insertErr)
	}

	// Step 3: apply lines in order.
	touched := make(map[string]bool)
	for _, line := range req.Lines {
		touched[line.AccountID] = true
		if err := p.applyLine(ctx, tx, req.JournalID, line, now); err != nil {
			return "", err
		}
	}

	// Step 4: post-apply invariant sweep.
	ids := make([]string, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	accounts, loadErr := p.accounts.LoadAccountsByIDs(ctx, tx, ids)
	if loadErr != nil {
		return "", fmt.Errorf("%w: post-apply sweep load: %v", apperrors.ErrInternal, loadErr)
	}
	for _, acct := range accounts {
		if p.overdraft[acct.ID] {
			continue
		}
		for _, b := range domain.Buckets {
			if acct.BalanceOf(b) < 0 {
				return "", fmt.Errorf("%w: account %s bucket %s went negative", apperrors.ErrNegativeBalance, acct.ID, b)
			}
		}
	}

	// Step 5: enqueue outbox item.
	payload, _ := json.Marshal(map[string]string{"journalId": req.JournalID})
	if err := p.outbox.Enqueue(ctx, tx, domain.OutboxItem{
		JournalID:     req.JournalID,
		Topic:         domain.TopicLedgerPosted,
		Payload:       payload,
		Status:        domain.OutboxPending,
		Attempts:      0,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}); err != nil {
		return "", fmt.Errorf("%w: outbox enqueue: %v", apperrors.ErrInternal, err)
	}

	// Step 6: mark journal posted.
	if err := p.journals.MarkJournalPosted(ctx, tx, req.JournalID, now); err != nil {
		return "", fmt.Errorf("%w: mark posted: %v", apperrors.ErrInternal, err)
	}

	// Step 7: chaos hook.
	if p.chaosProb > 0 && rand.Float64() < p.chaosProb {
		return "", apperrors.ErrChaosFailure
	}

	if err := p.store.Commit(ctx, tx); err != nil {
		return "", fmt.Errorf("%w: commit: %v", apperrors.ErrInternal, err)
	}
	committed = true
	return req.JournalID, nil
}

func (p *JournalPoster) applyLine(ctx context.Context, tx ports.Tx, journalID string, line validation.ParsedLine, now time.Time) error {
	account, err := p.accounts.UpsertAccount(ctx, tx, line.AccountID, line.Amount.Currency, now)
	if err != nil {
		return fmt.Errorf("%w: upsert account %s: %v", apperrors.ErrInternal, line.AccountID, err)
	}
	if account.Currency != line.Amount.Currency {
		return fmt.Errorf("%w: account %s is %s, line is %s", apperrors.ErrCurrencyMismatch, line.AccountID, account.Currency, line.Amount.Currency)
	}

	if line.FromBucket != nil && line.ToBucket != nil && *line.FromBucket == *line.ToBucket {
		if err := p.accounts.TouchAccount(ctx, tx, line.AccountID, now); err != nil {
			return fmt.Errorf("%w: touch account %s: %v", apperrors.ErrInternal, line.AccountID, err)
		}
		return p.appendAudit(ctx, tx, journalID, line, now)
	}

	amountMinor, err := money.ToMinor(line.Amount.Amount)
	if err != nil {
		return err
	}
	systemOverdraft := p.overdraft[line.AccountID]
	if err := p.accounts.ApplyBucketDelta(ctx, tx, line.AccountID, line.FromBucket, line.ToBucket, amountMinor, systemOverdraft, now); err != nil {
		if errors.Is(err, apperrors.ErrInsufficientFunds) {
			return err
		}
		return fmt.Errorf("%w: apply bucket delta for account %s: %v", apperrors.ErrInternal, line.AccountID, err)
	}
	return p.appendAudit(ctx, tx, journalID, line, now)
}

func (p *JournalPoster) appendAudit(ctx context.Context, tx ports.Tx, journalID string, line validation.ParsedLine, now time.Time) error {
	if err := p.ledger.AppendEntry(ctx, tx, domain.LedgerEntry{
		JournalID:  journalID,
		LineNo:     line.LineNo,
		AccountID:  line.AccountID,
		FromBucket: line.FromBucket,
		ToBucket:   line.ToBucket,
		Side:       line.Side,
		Transition: line.Transition,
		Amount:     line.Amount.Amount,
		Currency:   line.Amount.Currency,
		CreatedAt:  now,
	}); err != nil {
		return fmt.Errorf("%w: append ledger entry: %v", apperrors.ErrInternal, err)
	}
	return nil
}

func classify(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, apperrors.ErrCurrencyMismatch):
		return "currency_mismatch"
	case errors.Is(err, apperrors.ErrNegativeBalance):
		return "negative_balance"
	case errors.Is(err, apperrors.ErrChaosFailure):
		return "chaos_failure"
	case errors.Is(err, apperrors.ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}

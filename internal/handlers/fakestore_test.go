package handlers_test

import (
	"context"
	"sort"
	"time"

	"github.com/SscSPs/txledger/internal/apperrors"
	"github.com/SscSPs/txledger/internal/core/domain"
	"github.com/SscSPs/txledger/internal/core/ports"
)

// fakeStore is a trimmed in-memory stand-in for the pgsql store,
// enough to drive the HTTP layer end to end without a database,
// mirroring the one built for the services package tests.
type fakeStore struct {
	journals map[string]domain.Journal
	byIdem   map[string]string
	accounts map[string]domain.Account
	entries  []domain.LedgerEntry
	outbox   []*domain.OutboxItem
	acks     map[string]domain.Ack
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		journals: map[string]domain.Journal{},
		byIdem:   map[string]string{},
		accounts: map[string]domain.Account{},
		acks:     map[string]domain.Ack{},
	}
}

type fakeTx struct{}

func (s *fakeStore) Begin(ctx context.Context) (ports.Tx, error)     { return fakeTx{}, nil }
func (s *fakeStore) Commit(ctx context.Context, tx ports.Tx) error   { return nil }
func (s *fakeStore) Rollback(ctx context.Context, tx ports.Tx) error { return nil }
func (s *fakeStore) HealthCheck(ctx context.Context) error           { return nil }
func (s *fakeStore) EnsureSchema(ctx context.Context) error          { return nil }

type fakeDuplicateErr struct{ msg string }

func (e fakeDuplicateErr) Error() string { return e.msg }

func (s *fakeStore) IsDuplicateKeyErr(err error) bool {
	_, ok := err.(fakeDuplicateErr)
	return ok
}

func (s *fakeStore) FindJournalByIdempotencyKeyOrID(ctx context.Context, tx ports.Tx, idempotencyKey, journalID string) (*domain.Journal, error) {
	if id, ok := s.byIdem[idempotencyKey]; ok {
		j := s.journals[id]
		return &j, nil
	}
	if j, ok := s.journals[journalID]; ok {
		return &j, nil
	}
	return nil, apperrors.ErrNotFound
}

func (s *fakeStore) InsertJournalPending(ctx context.Context, tx ports.Tx, j domain.Journal) error {
	if _, ok := s.journals[j.JournalID]; ok {
		return fakeDuplicateErr{"duplicate journal id"}
	}
	if _, ok := s.byIdem[j.IdempotencyKey]; ok {
		return fakeDuplicateErr{"duplicate idempotency key"}
	}
	s.journals[j.JournalID] = j
	s.byIdem[j.IdempotencyKey] = j.JournalID
	return nil
}

func (s *fakeStore) MarkJournalPosted(ctx context.Context, tx ports.Tx, journalID string, postedAt time.Time) error {
	j := s.journals[journalID]
	j.Status = domain.JournalPosted
	s.journals[journalID] = j
	return nil
}

func (s *fakeStore) UpsertAccount(ctx context.Context, tx ports.Tx, accountID, currency string, now time.Time) (*domain.Account, error) {
	if a, ok := s.accounts[accountID]; ok {
		return &a, nil
	}
	a := domain.Account{ID: accountID, Currency: currency, Buckets: map[domain.Bucket]int64{}, CreatedAt: now, UpdatedAt: now}
	s.accounts[accountID] = a
	return &a, nil
}

func (s *fakeStore) ApplyBucketDelta(ctx context.Context, tx ports.Tx, accountID string, from, to *domain.Bucket, amountMinor int64, systemOverdraft bool, now time.Time) error {
	a, ok := s.accounts[accountID]
	if !ok {
		return apperrors.ErrInternal
	}
	if from != nil && !systemOverdraft && a.Buckets[*from] < amountMinor {
		return apperrors.ErrInsufficientFunds
	}
	if from != nil {
		a.Buckets[*from] -= amountMinor
	}
	if to != nil {
		a.Buckets[*to] += amountMinor
	}
	a.UpdatedAt = now
	s.accounts[accountID] = a
	return nil
}

func (s *fakeStore) TouchAccount(ctx context.Context, tx ports.Tx, accountID string, now time.Time) error {
	a, ok := s.accounts[accountID]
	if !ok {
		return apperrors.ErrInternal
	}
	a.UpdatedAt = now
	s.accounts[accountID] = a
	return nil
}

func (s *fakeStore) LoadAccountsByIDs(ctx context.Context, tx ports.Tx, ids []string) ([]domain.Account, error) {
	out := make([]domain.Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.accounts[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) AppendEntry(ctx context.Context, tx ports.Tx, entry domain.LedgerEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeStore) History(ctx context.Context, accountID, currency string) ([]domain.LedgerEntry, error) {
	var out []domain.LedgerEntry
	for _, e := range s.entries {
		if e.AccountID != accountID {
			continue
		}
		if currency != "" && e.Currency != currency {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) Enqueue(ctx context.Context, tx ports.Tx, item domain.OutboxItem) error {
	s.nextID++
	item.ID = s.nextID
	s.outbox = append(s.outbox, &item)
	return nil
}

func (s *fakeStore) ClaimOne(ctx context.Context, now time.Time) (*domain.OutboxItem, error) {
	for _, item := range s.outbox {
		if item.Status == domain.OutboxPending && !item.NextAttemptAt.After(now) {
			item.Status = domain.OutboxProcessing
			cp := *item
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *fakeStore) MarkSent(ctx context.Context, id int64, now time.Time) error {
	for _, item := range s.outbox {
		if item.ID == id {
			item.Status = domain.OutboxSent
			return nil
		}
	}
	return apperrors.ErrInternal
}

func (s *fakeStore) Reschedule(ctx context.Context, id int64, attempts int, nextAttemptAt, now time.Time) error {
	for _, item := range s.outbox {
		if item.ID == id {
			item.Status = domain.OutboxPending
			item.Attempts = attempts
			item.NextAttemptAt = nextAttemptAt
			return nil
		}
	}
	return apperrors.ErrInternal
}

func (s *fakeStore) QueueDepths(ctx context.Context) (pending int, pendingRetries int, err error) {
	for _, item := range s.outbox {
		if item.Status == domain.OutboxPending {
			pending++
			if item.Attempts > 0 {
				pendingRetries++
			}
		}
	}
	return pending, pendingRetries, nil
}

func (s *fakeStore) InsertAck(ctx context.Context, ack domain.Ack) error {
	if _, ok := s.acks[ack.JournalID]; ok {
		return fakeDuplicateErr{"duplicate ack"}
	}
	s.acks[ack.JournalID] = ack
	return nil
}

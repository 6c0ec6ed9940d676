package services_test

import (
	"context"
	"sort"
	"time"

	"github.com/SscSPs/txledger/internal/apperrors"
	"github.com/SscSPs/txledger/internal/core/domain"
	"github.com/SscSPs/txledger/internal/core/ports"
)

// fakeTx is the only Tx value the fake store ever hands out; its
// identity doesn't matter, only that callers pass back what they got.
type fakeTx struct{}

// fakeStore is an in-memory stand-in for the pgsql-backed store,
// exercising the same ports.Store/.../ports.AckStore surface the real
// implementation does, so the service tests run without a database.
type fakeStore struct {
	journals map[string]domain.Journal // keyed by journalID
	byIdem   map[string]string         // idempotencyKey -> journalID
	accounts map[string]domain.Account
	entries  []domain.LedgerEntry
	outbox   []*domain.OutboxItem
	acks     map[string]domain.Ack
	nextID   int64

	duplicateIDs  map[string]bool // journalIDs to report as collided on insert
	duplicateAcks map[string]bool

	// racingJournal simulates a concurrent writer that commits its
	// header insert for this journalID between our idempotency probe
	// and our own insert attempt: invisible to Find until our insert
	// collides, at which point it becomes visible as the real
	// implementation's committed row would be.
	racingJournal *domain.Journal

	// snapshot holds the pre-Begin state so Rollback can undo whatever
	// the in-flight transaction mutated, mirroring real Postgres
	// transaction isolation (Begin/Rollback are no-ops otherwise, and a
	// chaos-hook failure after lines are applied would otherwise leave
	// the fake store holding half-applied state).
	snapshot *fakeStoreSnapshot
}

type fakeStoreSnapshot struct {
	journals map[string]domain.Journal
	byIdem   map[string]string
	accounts map[string]domain.Account
	entries  []domain.LedgerEntry
	outbox   []domain.OutboxItem
	acks     map[string]domain.Ack
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		journals:      map[string]domain.Journal{},
		byIdem:        map[string]string{},
		accounts:      map[string]domain.Account{},
		acks:          map[string]domain.Ack{},
		duplicateIDs:  map[string]bool{},
		duplicateAcks: map[string]bool{},
	}
}

func (s *fakeStore) Begin(ctx context.Context) (ports.Tx, error) {
	s.snapshot = &fakeStoreSnapshot{
		journals: copyJournals(s.journals),
		byIdem:   copyStringMap(s.byIdem),
		accounts: copyAccounts(s.accounts),
		entries:  append([]domain.LedgerEntry(nil), s.entries...),
		outbox:   copyOutbox(s.outbox),
		acks:     copyAcks(s.acks),
		nextID:   s.nextID,
	}
	return fakeTx{}, nil
}

func (s *fakeStore) Commit(ctx context.Context, tx ports.Tx) error {
	s.snapshot = nil
	return nil
}

func (s *fakeStore) Rollback(ctx context.Context, tx ports.Tx) error {
	if s.snapshot == nil {
		return nil
	}
	s.journals = s.snapshot.journals
	s.byIdem = s.snapshot.byIdem
	s.accounts = s.snapshot.accounts
	s.entries = s.snapshot.entries
	s.nextID = s.snapshot.nextID
	s.outbox = make([]*domain.OutboxItem, len(s.snapshot.outbox))
	for i := range s.snapshot.outbox {
		item := s.snapshot.outbox[i]
		s.outbox[i] = &item
	}
	s.acks = s.snapshot.acks
	s.snapshot = nil
	return nil
}

func (s *fakeStore) HealthCheck(ctx context.Context) error  { return nil }
func (s *fakeStore) EnsureSchema(ctx context.Context) error { return nil }

func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyJournals(m map[string]domain.Journal) map[string]domain.Journal {
	out := make(map[string]domain.Journal, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyAccounts(m map[string]domain.Account) map[string]domain.Account {
	out := make(map[string]domain.Account, len(m))
	for k, v := range m {
		cp := v
		cp.Buckets = make(map[domain.Bucket]int64, len(v.Buckets))
		for b, amt := range v.Buckets {
			cp.Buckets[b] = amt
		}
		out[k] = cp
	}
	return out
}

func copyAcks(m map[string]domain.Ack) map[string]domain.Ack {
	out := make(map[string]domain.Ack, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyOutbox(items []*domain.OutboxItem) []domain.OutboxItem {
	out := make([]domain.OutboxItem, len(items))
	for i, item := range items {
		out[i] = *item
	}
	return out
}

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
	if s.racingJournal != nil && s.racingJournal.JournalID == j.JournalID {
		winner := *s.racingJournal
		s.journals[winner.JournalID] = winner
		s.byIdem[winner.IdempotencyKey] = winner.JournalID
		// The other transaction already committed this row: fold it
		// into the pre-Begin snapshot too, so rolling back *our*
		// transaction doesn't erase a commit that isn't ours to undo.
		if s.snapshot != nil {
			s.snapshot.journals[winner.JournalID] = winner
			s.snapshot.byIdem[winner.IdempotencyKey] = winner.JournalID
		}
		s.racingJournal = nil
		return fakeDuplicateErr{"duplicate journal id"}
	}
	if s.duplicateIDs[j.JournalID] {
		return fakeDuplicateErr{"duplicate journal"}
	}
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
	a := domain.Account{
		ID:        accountID,
		Currency:  currency,
		Buckets:   map[domain.Bucket]int64{},
		CreatedAt: now,
		UpdatedAt: now,
	}
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
	var candidates []*domain.OutboxItem
	for _, item := range s.outbox {
		if item.Status == domain.OutboxPending && !item.NextAttemptAt.After(now) {
			candidates = append(candidates, item)
		}
	}
	if len(candidates) == 0 {
		return nil, apperrors.ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].NextAttemptAt.Equal(candidates[j].NextAttemptAt) {
			return candidates[i].NextAttemptAt.Before(candidates[j].NextAttemptAt)
		}
		if !candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
		}
		return candidates[i].ID < candidates[j].ID
	})
	claimed := candidates[0]
	claimed.Status = domain.OutboxProcessing
	cp := *claimed
	return &cp, nil
}

func (s *fakeStore) MarkSent(ctx context.Context, id int64, now time.Time) error {
	for _, item := range s.outbox {
		if item.ID == id {
			if item.Status != domain.OutboxProcessing {
				return apperrors.ErrInternal
			}
			item.Status = domain.OutboxSent
			item.UpdatedAt = now
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
			item.UpdatedAt = now
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

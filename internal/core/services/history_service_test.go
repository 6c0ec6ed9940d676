package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/txledger/internal/core/domain"
	"github.com/SscSPs/txledger/internal/core/ports"
	"github.com/SscSPs/txledger/internal/core/services"
)

type mockLedgerStore struct {
	mock.Mock
}

func (m *mockLedgerStore) AppendEntry(ctx context.Context, tx ports.Tx, entry domain.LedgerEntry) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *mockLedgerStore) History(ctx context.Context, accountID, currency string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, accountID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func TestHistory_UsesFirstEntryCurrencyWhenUnfiltered(t *testing.T) {
	store := &mockLedgerStore{}
	now := time.Now()
	store.On("History", mock.Anything, "USER_1", "").Return([]domain.LedgerEntry{
		{AccountID: "USER_1", Currency: "GBP", Transition: domain.TransitionReserve, Amount: "10.00", CreatedAt: now},
	}, nil)

	svc := services.NewHistoryService(store)
	result, err := svc.History(context.Background(), "USER_1", "")
	require.NoError(t, err)
	assert.Equal(t, "GBP", result.Currency)
	assert.Len(t, result.History, 1)
	store.AssertExpectations(t)
}

func TestHistory_DefaultsToUSDWhenEmpty(t *testing.T) {
	store := &mockLedgerStore{}
	store.On("History", mock.Anything, "GHOST", "").Return([]domain.LedgerEntry{}, nil)

	svc := services.NewHistoryService(store)
	result, err := svc.History(context.Background(), "GHOST", "")
	require.NoError(t, err)
	assert.Equal(t, "USD", result.Currency)
	assert.Empty(t, result.History)
}

func TestHistory_PropagatesStoreError(t *testing.T) {
	store := &mockLedgerStore{}
	boom := assert.AnError
	store.On("History", mock.Anything, "USER_1", "EUR").Return(nil, boom)

	svc := services.NewHistoryService(store)
	_, err := svc.History(context.Background(), "USER_1", "EUR")
	assert.ErrorIs(t, err, boom)
}

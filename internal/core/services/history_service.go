package services

import (
	"context"

	"github.com/SscSPs/txledger/internal/core/domain"
	"github.com/SscSPs/txledger/internal/core/ports"
)

// HistoryService implements C6: the chronological account-history
// projection over the audit log.
type HistoryService struct {
	ledger ports.LedgerStore
}

// NewHistoryService wires the ledger store port.
func NewHistoryService(ledger ports.LedgerStore) *HistoryService {
	return &HistoryService{ledger: ledger}
}

// AccountHistory is the result shape of spec.md §4.6.
type AccountHistory struct {
	AccountID string
	Currency  string
	History   []domain.HistoryPoint
}

// History returns entries for accountID, optionally filtered by
// currency, ordered ascending by createdAt. An empty history is not
// an error; the HTTP layer decides whether to surface that as 404.
func (s *HistoryService) History(ctx context.Context, accountID, currency string) (AccountHistory, error) {
	entries, err := s.ledger.History(ctx, accountID, currency)
	if err != nil {
		return AccountHistory{}, err
	}

	result := AccountHistory{AccountID: accountID, Currency: currency}
	if result.Currency == "" {
		if len(entries) > 0 {
			result.Currency = entries[0].Currency
		} else {
			result.Currency = "USD"
		}
	}
	result.History = make([]domain.HistoryPoint, 0, len(entries))
	for _, e := range entries {
		result.History = append(result.History, domain.HistoryPoint{
			Transition: e.Transition,
			Amount:     e.Amount,
			Timestamp:  e.CreatedAt,
		})
	}
	return result, nil
}

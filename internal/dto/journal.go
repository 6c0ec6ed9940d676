// Package dto holds the wire-level request/response shapes for the
// HTTP adapter, kept separate from internal/core/domain the way the
// teacher separates dto from domain.
package dto

// AmountRequest is the wire shape of a line's money value.
type AmountRequest struct {
	Currency string `json:"currency" validate:"required,currency_code"`
	Amount   string `json:"amount" validate:"required,decimal_amount"`
}

// LineRequest is the wire shape of one journal line.
type LineRequest struct {
	AccountID  string        `json:"accountId" validate:"required"`
	Side       string        `json:"side" validate:"required,oneof=debit credit"`
	Transition string        `json:"transition" validate:"required"`
	FromBucket *string       `json:"fromBucket,omitempty"`
	ToBucket   *string       `json:"toBucket,omitempty"`
	Amount     AmountRequest `json:"amount" validate:"required"`
}

// PostJournalRequest is the body of POST /journal.
type PostJournalRequest struct {
	JournalID      string        `json:"journalId" validate:"required"`
	IdempotencyKey string        `json:"idempotencyKey" validate:"required"`
	Lines          []LineRequest `json:"lines" validate:"required,min=2,dive"`
}

// PostJournalResponse is the success body of POST /journal.
type PostJournalResponse struct {
	OK        bool   `json:"ok"`
	JournalID string `json:"journalId"`
}

// ValidationIssue is one field-level problem from schema validation.
type ValidationIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ErrorResponse is the uniform JSON error body: {error, details?}.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details []ValidationIssue `json:"details,omitempty"`
}

// AccountHistoryResponse is the body of GET /accounts/:id/history.
type AccountHistoryResponse struct {
	AccountID string        `json:"accountId"`
	Currency  string        `json:"currency"`
	History   []HistoryItem `json:"history"`
}

// HistoryItem is one projected entry in an account history response.
type HistoryItem struct {
	Transition string `json:"transition"`
	Amount     string `json:"amount"`
	Timestamp  string `json:"timestamp"`
}

// EventIngressRequest is the body of POST /events.
type EventIngressRequest struct {
	JournalID string          `json:"journalId" validate:"required"`
	Topic     string          `json:"topic"`
	Payload   interface{}     `json:"payload"`
}

// OutboxProcessResponse is the body of POST /outbox/process.
type OutboxProcessResponse struct {
	Attempted      int `json:"attempted"`
	Sent           int `json:"sent"`
	Retried        int `json:"retried"`
	Pending        int `json:"pending"`
	PendingRetries int `json:"pendingRetries"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	DBConnected    bool           `json:"dbConnected"`
	OutboxQueue    int            `json:"outboxQueue"`
	PendingRetries int            `json:"pendingRetries"`
	Metrics        map[string]any `json:"metrics"`
	Timestamp      string         `json:"timestamp"`
}

// Package domain holds the core types of the ledger: accounts, buckets,
// journals, ledger entries, outbox items, and consumer acks. Nothing in
// this package talks to a store or the network.
package domain

import "time"

// Bucket names a sub-balance on an Account.
type Bucket string

const (
	BucketAvailable Bucket = "available"
	BucketPending   Bucket = "pending"
	BucketEscrow    Bucket = "escrow"
	BucketOutflow   Bucket = "outflow"
)

// Buckets lists the fixed, total set of buckets every account has.
var Buckets = []Bucket{BucketAvailable, BucketPending, BucketEscrow, BucketOutflow}

// Transition names an allowed movement of funds between two buckets.
type Transition string

const (
	TransitionReserve  Transition = "reserve"
	TransitionLock     Transition = "lock"
	TransitionFinalize Transition = "finalize"
	TransitionRelease  Transition = "release"
	TransitionRevert   Transition = "revert"
)

// Side marks a line as a debit or a credit for the balance proof.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// JournalStatus is the lifecycle state of a Journal.
type JournalStatus string

const (
	JournalPending JournalStatus = "pending"
	JournalPosted  JournalStatus = "posted"
)

// OutboxStatus is the lifecycle state of an OutboxItem.
type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxProcessing OutboxStatus = "processing"
	OutboxSent       OutboxStatus = "sent"
)

// TopicLedgerPosted is the single logical outbox topic this core emits.
const TopicLedgerPosted = "LedgerEvent.Posted"

// Account is a named holder of money in one currency, partitioned into
// the fixed set of Buckets. Created lazily on first reference by a
// posting; never deleted.
type Account struct {
	ID        string
	Currency  string
	Buckets   map[Bucket]int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BalanceOf returns the minor-unit value of a bucket, zero if absent.
func (a Account) BalanceOf(b Bucket) int64 {
	if a.Buckets == nil {
		return 0
	}
	return a.Buckets[b]
}

// Amount is a wire-level money value: a canonical decimal string in one
// ISO-4217 currency.
type Amount struct {
	Currency string
	Amount   string
}

// Line is one entry of a Journal: one account, one transition, one
// amount, one side, moving money between at most two buckets.
type Line struct {
	AccountID  string
	Side       Side
	Transition Transition
	FromBucket *Bucket
	ToBucket   *Bucket
	Amount     Amount
}

// Journal is a set of >= 2 Lines posted atomically.
type Journal struct {
	JournalID      string
	IdempotencyKey string
	Lines          []Line
	Status         JournalStatus
	CreatedAt      time.Time
}

// LedgerEntry is one append-only audit record for a committed line.
type LedgerEntry struct {
	JournalID  string
	LineNo     int
	AccountID  string
	FromBucket *Bucket
	ToBucket   *Bucket
	Side       Side
	Transition Transition
	Amount     string
	Currency   string
	CreatedAt  time.Time
}

// OutboxItem is a durable queue entry created inside the posting
// transaction, eventually reaching OutboxSent.
type OutboxItem struct {
	ID            int64
	JournalID     string
	Topic         string
	Payload       []byte
	Status        OutboxStatus
	Attempts      int
	NextAttemptAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Ack is a consumer-side durable record that a journal's event was
// processed, keyed by JournalID.
type Ack struct {
	JournalID string
	Topic     string
	Payload   []byte
	AckedAt   time.Time
}

// HistoryPoint is one projected entry returned by the account-history
// query (C6).
type HistoryPoint struct {
	Transition Transition `json:"transition"`
	Amount     string     `json:"amount"`
	Timestamp  time.Time  `json:"timestamp"`
}

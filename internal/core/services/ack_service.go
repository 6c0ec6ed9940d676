package services

import (
	"context"
	"time"

	"github.com/SscSPs/txledger/internal/core/domain"
	"github.com/SscSPs/txledger/internal/core/ports"
)

// AckService implements C7: the idempotent event-ingress ack sink.
type AckService struct {
	store ports.Store
	acks  ports.AckStore
	now   func() time.Time
}

// NewAckService wires the store (for duplicate-key classification)
// and the ack store port.
func NewAckService(store ports.Store, acks ports.AckStore) *AckService {
	return &AckService{store: store, acks: acks, now: time.Now}
}

// Ack inserts a record of a processed journal event. A unique-index
// collision on journalID is the intended idempotency path and returns
// success, matching the teacher's SaveAccount unique-violation-as-
// success handling applied to this table.
func (s *AckService) Ack(ctx context.Context, journalID, topic string, payload []byte) error {
	err := s.acks.InsertAck(ctx, domain.Ack{
		JournalID: journalID,
		Topic:     topic,
		Payload:   payload,
		AckedAt:   s.now(),
	})
	if err != nil && !s.store.IsDuplicateKeyErr(err) {
		return err
	}
	return nil
}

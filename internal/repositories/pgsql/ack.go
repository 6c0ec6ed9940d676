package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/txledger/internal/core/domain"
)

// InsertAck records one event acknowledgement. The unique index on
// journal_id is the idempotency mechanism: a replayed ack collides and
// the caller (AckService) classifies that collision with
// Store.IsDuplicateKeyErr rather than this method special-casing it,
// the same division of responsibility as the teacher's SaveAccount.
func (s *Store) InsertAck(ctx context.Context, ack domain.Ack) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO events_acks (journal_id, topic, payload, acked_at)
		VALUES ($1, $2, $3, $4)
	`, ack.JournalID, ack.Topic, ack.Payload, ack.AckedAt)
	if err != nil {
		return fmt.Errorf("insert ack for journal %s: %w", ack.JournalID, err)
	}
	return nil
}

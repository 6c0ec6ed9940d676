package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/SscSPs/txledger/internal/apperrors"
	"github.com/SscSPs/txledger/internal/core/ports"
	"github.com/SscSPs/txledger/internal/outboxhttp"
)

const (
	defaultMaxBatch      = 50
	defaultTimeout       = 5000 * time.Millisecond
	defaultBaseDelay     = 500 * time.Millisecond
	defaultMaxBackoff    = 60000 * time.Millisecond
	backoffJitterFactor  = 0.2
	maxBackoffAttemptCap = 10
)

// ProcessOptions configures one processOnce invocation (spec.md §4.5).
// Zero values fall back to the component's defaults.
type ProcessOptions struct {
	MaxBatch     int
	MaxBackoffMs int
	TimeoutMs    int
	Target       string
}

// ProcessResult is the run summary returned to the caller.
type ProcessResult struct {
	Attempted      int `json:"attempted"`
	Sent           int `json:"sent"`
	Retried        int `json:"retried"`
	Pending        int `json:"pending"`
	PendingRetries int `json:"pendingRetries"`
}

// OutboxDispatcher implements C5: claim-one, dispatch-with-timeout,
// mark-sent or reschedule-with-backoff.
type OutboxDispatcher struct {
	outbox    ports.OutboxStore
	targetCfg outboxhttp.TargetConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewOutboxDispatcher wires the outbox store port and the configured
// target resolution pieces together.
func NewOutboxDispatcher(outbox ports.OutboxStore, targetCfg outboxhttp.TargetConfig, logger *slog.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{outbox: outbox, targetCfg: targetCfg, logger: logger, now: time.Now}
}

// ProcessOnce drains up to opts.MaxBatch due items. Dispatch failures
// are never propagated as errors to the caller — they are counted as
// retried in the result, per spec.md §7.
func (d *OutboxDispatcher) ProcessOnce(ctx context.Context, opts ProcessOptions) (ProcessResult, error) {
	maxBatch := opts.MaxBatch
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatch
	}
	maxBackoff := defaultMaxBackoff
	if opts.MaxBackoffMs > 0 {
		maxBackoff = time.Duration(opts.MaxBackoffMs) * time.Millisecond
	}
	timeout := defaultTimeout
	if opts.TimeoutMs > 0 {
		timeout = time.Duration(opts.TimeoutMs) * time.Millisecond
	}
	targetURL := outboxhttp.ResolveTargetURL(opts.Target, d.targetCfg)
	client := outboxhttp.NewClient(targetURL, timeout)

	var result ProcessResult
	for i := 0; i < maxBatch; i++ {
		item, err := d.outbox.ClaimOne(ctx, d.now())
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				break
			}
			return result, err
		}
		result.Attempted++

		dispatchCtx, cancel := context.WithTimeout(ctx, timeout)
		dispatchErr := client.Dispatch(dispatchCtx, outboxhttp.Payload{
			JournalID: item.JournalID,
			Topic:     item.Topic,
			Payload:   rawPayload(item.Payload),
		})
		cancel()

		if dispatchErr == nil {
			if err := d.outbox.MarkSent(ctx, item.ID, d.now()); err != nil {
				return result, err
			}
			result.Sent++
			continue
		}

		d.logger.Warn("outbox dispatch failed, rescheduling",
			slog.Int64("outbox_id", item.ID),
			slog.String("journal_id", item.JournalID),
			slog.String("error", dispatchErr.Error()),
		)
		attempts := item.Attempts + 1
		delay := backoffDelay(attempts, maxBackoff)
		if err := d.outbox.Reschedule(ctx, item.ID, attempts, d.now().Add(delay), d.now()); err != nil {
			return result, err
		}
		result.Retried++
	}

	pending, pendingRetries, err := d.outbox.QueueDepths(ctx)
	if err != nil {
		return result, err
	}
	result.Pending = pending
	result.PendingRetries = pendingRetries
	return result, nil
}

// backoffDelay computes delay = min(base * 2^min(attempts,10), max)
// using cenkalti/backoff's ExponentialBackOff for the deterministic
// doubling-and-cap sequence (RandomizationFactor 0 here so the base
// value is exact), then adds up to 20% additive jitter on top and
// clips the total to max plus 20% of max.
func backoffDelay(attempts int, maxBackoff time.Duration) time.Duration {
	capped := attempts
	if capped > maxBackoffAttemptCap {
		capped = maxBackoffAttemptCap
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = defaultBaseDelay
	bo.Multiplier = 2
	bo.MaxInterval = maxBackoff
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()

	var delay time.Duration
	for i := 0; i <= capped; i++ {
		delay = bo.NextBackOff()
	}
	if delay == backoff.Stop || delay > maxBackoff {
		delay = maxBackoff
	}

	jitter := time.Duration(rand.Float64() * backoffJitterFactor * float64(delay))
	total := delay + jitter
	if capped := maxBackoff + time.Duration(backoffJitterFactor*float64(maxBackoff)); total > capped {
		total = capped
	}
	return total
}

func rawPayload(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return string(b)
	}
	return v
}

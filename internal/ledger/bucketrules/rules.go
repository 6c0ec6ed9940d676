// Package bucketrules holds the bucket state machine (C2): a static,
// total table of which (from, to) bucket pair each transition labels,
// and the validation primitives built on it. Structured the way the
// teacher's debit/credit sign table maps a closed enum to its legal
// values, generalized here to a set of legal pairs per transition.
package bucketrules

import (
	"fmt"

	"github.com/SscSPs/txledger/internal/apperrors"
	"github.com/SscSPs/txledger/internal/core/domain"
)

type pair struct {
	from domain.Bucket
	to   domain.Bucket
}

// rules maps each transition to its legal (from, to) pairs. Only
// "lock" has more than one legal from-bucket.
var rules = map[domain.Transition][]pair{
	domain.TransitionReserve: {
		{from: domain.BucketAvailable, to: domain.BucketPending},
	},
	domain.TransitionLock: {
		{from: domain.BucketPending, to: domain.BucketEscrow},
		{from: domain.BucketAvailable, to: domain.BucketEscrow},
	},
	domain.TransitionFinalize: {
		{from: domain.BucketEscrow, to: domain.BucketOutflow},
	},
	domain.TransitionRelease: {
		{from: domain.BucketPending, to: domain.BucketAvailable},
	},
	domain.TransitionRevert: {
		{from: domain.BucketEscrow, to: domain.BucketAvailable},
	},
}

// KnownTransition reports whether t is one of the five named
// transitions. Unknown transition names are rejected at schema time,
// before Validate is ever called.
func KnownTransition(t domain.Transition) bool {
	_, ok := rules[t]
	return ok
}

// Validate checks one line's (from, to) bucket pair against the
// transition's rule. An explicit no-op line (fromBucket == toBucket,
// both present) is accepted regardless of transition, per spec.
func Validate(transition domain.Transition, from, to *domain.Bucket) error {
	if from != nil && to != nil && *from == *to {
		return nil
	}
	if from == nil {
		return fmt.Errorf("%w: fromBucket is required for transition %q", apperrors.ErrMissingBucket, transition)
	}
	if to == nil {
		return fmt.Errorf("%w: toBucket is required for transition %q", apperrors.ErrMissingBucket, transition)
	}
	pairs, ok := rules[transition]
	if !ok {
		return fmt.Errorf("%w: unknown transition %q", apperrors.ErrInvalidTransition, transition)
	}
	for _, p := range pairs {
		if p.from == *from && p.to == *to {
			return nil
		}
	}
	return fmt.Errorf("%w: transition %q does not allow %s -> %s", apperrors.ErrInvalidBucket, transition, *from, *to)
}

package rma

import (
	"context"

	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/domain/rma"
)

// NumberSequence allocates monthly RMA sequence numbers from an atomic
// counter instead of counting rows.
type NumberSequence interface {
	// Next returns the next number for period (YYYYMM). floor is called when
	// the counter has no state yet and must return the highest number already
	// allocated for the period.
	Next(ctx context.Context, period string, floor func(ctx context.Context) (int64, error)) (int64, error)
	// Raise lifts the counter for period to at least floor and returns its
	// value afterwards.
	Raise(ctx context.Context, period string, floor int64) (int64, error)
}

// FulfillmentDispatcher issues credit memos and replacement orders for a
// resolved RMA. It runs after the resolution commits and never undoes it.
type FulfillmentDispatcher interface {
	DispatchResolved(ctx context.Context, r *rma.RMA, actor identity.Actor)
}

// TransitionObserver is notified after a status change commits
type TransitionObserver interface {
	RecordTransition(ctx context.Context, operation string, from, to rma.Status)
}

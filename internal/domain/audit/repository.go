package audit

import (
	"context"

	"github.com/google/uuid"
)

// Recorder appends audit events. Implementations are bound to an open
// transaction; a failed insert must fail the surrounding transaction.
type Recorder interface {
	Record(ctx context.Context, entry Entry) (*Event, error)
}

// Reader provides read access to the audit trail
type Reader interface {
	// FindByRMA returns all events for an RMA in occurrence order
	FindByRMA(ctx context.Context, rmaID uuid.UUID) ([]Event, error)
}

package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entry is the caller-supplied content of an audit event.
// The recorder assigns the ID and OccurredAt.
type Entry struct {
	RMAID      *uuid.UUID
	RMALineID  *uuid.UUID
	ActorID    uuid.UUID
	ActorRole  string
	Action     string
	FromStatus *string
	ToStatus   *string
	OldValue   map[string]any
	NewValue   map[string]any
	Metadata   map[string]any
	IPAddress  *string
}

// Event is a persisted, immutable audit record
type Event struct {
	ID uuid.UUID
	Entry
	OccurredAt time.Time
}

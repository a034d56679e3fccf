// Package rma contains the return merchandise authorization aggregate and
// the lifecycle rules that govern it.
package rma

// Status represents the lifecycle status of an RMA
type Status string

const (
	StatusDraft        Status = "DRAFT"
	StatusSubmitted    Status = "SUBMITTED"
	StatusApproved     Status = "APPROVED"
	StatusRejected     Status = "REJECTED"
	StatusInfoRequired Status = "INFO_REQUIRED"
	StatusContested    Status = "CONTESTED"
	StatusCancelled    Status = "CANCELLED"
	StatusReceived     Status = "RECEIVED"
	StatusQCComplete   Status = "QC_COMPLETE"
	StatusResolved     Status = "RESOLVED"
	StatusClosed       Status = "CLOSED"
)

// transitions is the single source of truth for legal status changes.
// Every status has an entry; terminal statuses map to an empty list.
var transitions = map[Status][]Status{
	StatusDraft:        {StatusSubmitted, StatusCancelled},
	StatusSubmitted:    {StatusApproved, StatusRejected, StatusInfoRequired, StatusCancelled},
	StatusInfoRequired: {StatusSubmitted, StatusCancelled},
	StatusApproved:     {StatusReceived, StatusCancelled},
	StatusReceived:     {StatusQCComplete},
	StatusQCComplete:   {StatusResolved},
	StatusResolved:     {StatusClosed},
	StatusContested:    {StatusApproved, StatusClosed},
	StatusRejected:     {},
	StatusCancelled:    {},
	StatusClosed:       {},
}

// AllStatuses returns every declared status in lifecycle order
func AllStatuses() []Status {
	return []Status{
		StatusDraft,
		StatusSubmitted,
		StatusInfoRequired,
		StatusApproved,
		StatusRejected,
		StatusContested,
		StatusCancelled,
		StatusReceived,
		StatusQCComplete,
		StatusResolved,
		StatusClosed,
	}
}

// IsValid checks if the status is a declared status
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no transition leaves s
func (s Status) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// IsLineEditable reports whether lines may be added, changed or removed in s
func (s Status) IsLineEditable() bool {
	return s == StatusDraft || s == StatusInfoRequired
}

// AllowedTransitions returns the statuses reachable from s in one step
func (s Status) AllowedTransitions() []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransitionTo checks if the status can transition to target
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// AssertValidTransition returns an *InvalidTransitionError when from → to is
// not in the transition table.
func AssertValidTransition(from, to Status) error {
	if from.CanTransitionTo(to) {
		return nil
	}
	return &InvalidTransitionError{
		From:    from,
		To:      to,
		Allowed: from.AllowedTransitions(),
	}
}

// Package audit defines the append-only audit trail written alongside every
// significant RMS change.
package audit

// Action kinds are plain strings so new kinds can be introduced without a
// schema change. Unknown kinds are still stored; IsKnownAction lets callers
// flag them.
const (
	ActionRMACreated      = "RMA_CREATED"
	ActionRMASubmitted    = "RMA_SUBMITTED"
	ActionRMAApproved     = "RMA_APPROVED"
	ActionRMARejected     = "RMA_REJECTED"
	ActionRMAInfoRequired = "RMA_INFO_REQUIRED"
	ActionRMAContested    = "RMA_CONTESTED"
	ActionRMACancelled    = "RMA_CANCELLED"
	ActionRMAReceived     = "RMA_RECEIVED"
	ActionRMAResolved     = "RMA_RESOLVED"
	ActionRMAClosed       = "RMA_CLOSED"
	ActionStatusChanged   = "STATUS_CHANGED"

	ActionLineAdded         = "LINE_ADDED"
	ActionLineUpdated       = "LINE_UPDATED"
	ActionLineSplit         = "LINE_SPLIT"
	ActionDispositionSet    = "DISPOSITION_SET"
	ActionFinanceApproved   = "FINANCE_APPROVED"
	ActionCommentAdded      = "COMMENT_ADDED"
	ActionAttachmentAdded   = "ATTACHMENT_ADDED"
	ActionAssignmentChanged = "ASSIGNMENT_CHANGED"

	ActionMERPCreditTriggered      = "MERP_CREDIT_TRIGGERED"
	ActionMERPReplacementTriggered = "MERP_REPLACEMENT_TRIGGERED"

	ActionUserProvisioned = "USER_PROVISIONED"
	ActionRoleChanged     = "ROLE_CHANGED"
)

var knownActions = map[string]struct{}{
	ActionRMACreated:               {},
	ActionRMASubmitted:             {},
	ActionRMAApproved:              {},
	ActionRMARejected:              {},
	ActionRMAInfoRequired:          {},
	ActionRMAContested:             {},
	ActionRMACancelled:             {},
	ActionRMAReceived:              {},
	ActionRMAResolved:              {},
	ActionRMAClosed:                {},
	ActionStatusChanged:            {},
	ActionLineAdded:                {},
	ActionLineUpdated:              {},
	ActionLineSplit:                {},
	ActionDispositionSet:           {},
	ActionFinanceApproved:          {},
	ActionCommentAdded:             {},
	ActionAttachmentAdded:          {},
	ActionAssignmentChanged:        {},
	ActionMERPCreditTriggered:      {},
	ActionMERPReplacementTriggered: {},
	ActionUserProvisioned:          {},
	ActionRoleChanged:              {},
}

// IsKnownAction reports whether action is one of the kinds this build writes
func IsKnownAction(action string) bool {
	_, ok := knownActions[action]
	return ok
}

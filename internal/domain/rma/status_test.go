package rma

import (
	"errors"
	"testing"

	"github.com/rms/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_TransitionTable(t *testing.T) {
	t.Run("every declared status has an entry", func(t *testing.T) {
		for _, s := range AllStatuses() {
			assert.True(t, s.IsValid(), s)
		}
		assert.False(t, Status("SHIPPED").IsValid())
	})

	t.Run("targets are declared statuses", func(t *testing.T) {
		for from, targets := range transitions {
			for _, to := range targets {
				assert.True(t, to.IsValid(), "%s -> %s", from, to)
			}
		}
	})

	t.Run("terminal statuses", func(t *testing.T) {
		assert.True(t, StatusRejected.IsTerminal())
		assert.True(t, StatusCancelled.IsTerminal())
		assert.True(t, StatusClosed.IsTerminal())
		assert.False(t, StatusContested.IsTerminal())
		assert.False(t, StatusResolved.IsTerminal())
		assert.False(t, Status("BOGUS").IsTerminal())
	})
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusDraft, StatusSubmitted, true},
		{StatusDraft, StatusCancelled, true},
		{StatusDraft, StatusApproved, false},
		{StatusSubmitted, StatusApproved, true},
		{StatusSubmitted, StatusRejected, true},
		{StatusSubmitted, StatusInfoRequired, true},
		{StatusSubmitted, StatusReceived, false},
		{StatusInfoRequired, StatusSubmitted, true},
		{StatusApproved, StatusReceived, true},
		{StatusApproved, StatusCancelled, true},
		{StatusApproved, StatusSubmitted, false},
		{StatusReceived, StatusQCComplete, true},
		{StatusReceived, StatusCancelled, false},
		{StatusQCComplete, StatusResolved, true},
		{StatusResolved, StatusClosed, true},
		{StatusContested, StatusApproved, true},
		{StatusContested, StatusClosed, true},
		// contest is recorded outside the table
		{StatusRejected, StatusContested, false},
		{StatusClosed, StatusDraft, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_IsLineEditable(t *testing.T) {
	for _, s := range AllStatuses() {
		want := s == StatusDraft || s == StatusInfoRequired
		assert.Equal(t, want, s.IsLineEditable(), s)
	}
}

func TestStatus_AllowedTransitionsReturnsCopy(t *testing.T) {
	allowed := StatusDraft.AllowedTransitions()
	require.Len(t, allowed, 2)
	allowed[0] = StatusClosed
	assert.Equal(t, StatusSubmitted, StatusDraft.AllowedTransitions()[0])
}

func TestAssertValidTransition(t *testing.T) {
	t.Run("legal transition", func(t *testing.T) {
		assert.NoError(t, AssertValidTransition(StatusSubmitted, StatusApproved))
	})

	t.Run("illegal transition carries allowed targets", func(t *testing.T) {
		err := AssertValidTransition(StatusReceived, StatusCancelled)
		require.Error(t, err)

		var ite *InvalidTransitionError
		require.True(t, errors.As(err, &ite))
		assert.Equal(t, StatusReceived, ite.From)
		assert.Equal(t, StatusCancelled, ite.To)
		assert.Equal(t, []Status{StatusQCComplete}, ite.Allowed)
		assert.Contains(t, err.Error(), "allowed: QC_COMPLETE")

		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, shared.CodeInvalidTransition, de.Code)
		assert.Equal(t, "RECEIVED", de.Details["fromStatus"])
		assert.Equal(t, "CANCELLED", de.Details["toStatus"])
		assert.Equal(t, []string{"QC_COMPLETE"}, de.Details["allowedTransitions"])
	})

	t.Run("terminal status lists none", func(t *testing.T) {
		err := AssertValidTransition(StatusClosed, StatusDraft)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "allowed: none")
	})
}

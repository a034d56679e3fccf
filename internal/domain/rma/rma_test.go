package rma

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func dispositionPtr(d Disposition) *Disposition { return &d }

func newTestRMA(t *testing.T, specs ...LineSpec) *RMA {
	t.Helper()
	if len(specs) == 0 {
		specs = []LineSpec{{PartNumber: "PN-100", OrderedQty: 10, ReasonCode: "DEFECTIVE"}}
	}
	r, err := NewRMA("RMA-202603-000001", uuid.New(), nil, nil, specs, testNow)
	require.NoError(t, err)
	return r
}

// requireReason asserts err is a PRECONDITION_FAILED error with the given reason
func requireReason(t *testing.T, err error, reason string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %T", err)
	assert.Equal(t, shared.CodePreconditionFailed, de.Code)
	assert.Equal(t, reason, de.Details["reason"])
}

func TestNewRMA(t *testing.T) {
	t.Run("creates a draft with numbered lines", func(t *testing.T) {
		customer := uuid.New()
		r, err := NewRMA("RMA-202603-000001", uuid.New(), &customer, nil, []LineSpec{
			{PartNumber: " PN-1 ", OrderedQty: 2, ReasonCode: "DEFECTIVE"},
			{PartNumber: "PN-2", OrderedQty: 1, ReasonCode: "WRONG_ITEM", Disposition: dispositionPtr(DispositionCredit)},
		}, testNow)
		require.NoError(t, err)

		assert.Equal(t, StatusDraft, r.Status)
		assert.NotEqual(t, uuid.Nil, r.ID)
		assert.Equal(t, testNow, r.CreatedAt)
		assert.Equal(t, &customer, r.CustomerID)
		require.Len(t, r.Lines, 2)
		assert.Equal(t, 1, r.Lines[0].LineNumber)
		assert.Equal(t, 2, r.Lines[1].LineNumber)
		assert.Equal(t, "PN-1", r.Lines[0].PartNumber)
		assert.Equal(t, r.ID, r.Lines[0].RMAID)
		assert.Zero(t, r.Lines[0].ReceivedQty)
		assert.Zero(t, r.Lines[0].InspectedQty)
	})

	t.Run("requires at least one line", func(t *testing.T) {
		_, err := NewRMA("RMA-202603-000001", uuid.New(), nil, nil, nil, testNow)
		requireReason(t, err, ReasonNoLines)
	})

	t.Run("requires a number and branch", func(t *testing.T) {
		specs := []LineSpec{{PartNumber: "PN", OrderedQty: 1, ReasonCode: "R"}}

		_, err := NewRMA("", uuid.New(), nil, nil, specs, testNow)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = NewRMA("RMA-202603-000001", uuid.Nil, nil, nil, specs, testNow)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects an invalid line", func(t *testing.T) {
		_, err := NewRMA("RMA-202603-000001", uuid.New(), nil, nil, []LineSpec{
			{PartNumber: "PN", OrderedQty: 0, ReasonCode: "R"},
		}, testNow)
		requireReason(t, err, ReasonInvalidQuantity)
	})
}

func TestLineSpec_Validate(t *testing.T) {
	negative := decimal.NewFromInt(-1)
	tests := []struct {
		name   string
		spec   LineSpec
		reason string
	}{
		{"missing part number", LineSpec{PartNumber: "  ", OrderedQty: 1, ReasonCode: "R"}, ReasonInvalidLine},
		{"zero quantity", LineSpec{PartNumber: "PN", OrderedQty: 0, ReasonCode: "R"}, ReasonInvalidQuantity},
		{"negative quantity", LineSpec{PartNumber: "PN", OrderedQty: -3, ReasonCode: "R"}, ReasonInvalidQuantity},
		{"missing reason code", LineSpec{PartNumber: "PN", OrderedQty: 1}, ReasonInvalidLine},
		{"unknown disposition", LineSpec{PartNumber: "PN", OrderedQty: 1, ReasonCode: "R", Disposition: dispositionPtr("REFUND")}, ReasonInvalidDisposition},
		{"negative unit cost", LineSpec{PartNumber: "PN", OrderedQty: 1, ReasonCode: "R", UnitCost: &negative}, ReasonInvalidLine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireReason(t, tt.spec.Validate(), tt.reason)
		})
	}

	t.Run("valid spec", func(t *testing.T) {
		cost := decimal.RequireFromString("12.50")
		spec := LineSpec{PartNumber: "PN", OrderedQty: 1, ReasonCode: "R", Disposition: dispositionPtr(DispositionRTV), UnitCost: &cost}
		assert.NoError(t, spec.Validate())
	})
}

func TestRMA_Checks(t *testing.T) {
	t.Run("lines editable only in draft and info required", func(t *testing.T) {
		r := newTestRMA(t)
		assert.NoError(t, r.CheckLinesEditable())
		r.Status = StatusInfoRequired
		assert.NoError(t, r.CheckLinesEditable())
		r.Status = StatusApproved
		requireReason(t, r.CheckLinesEditable(), ReasonLinesNotEditable)
	})

	t.Run("has lines", func(t *testing.T) {
		r := newTestRMA(t)
		assert.NoError(t, r.CheckHasLines())
		r.Lines = nil
		requireReason(t, r.CheckHasLines(), ReasonNoLines)
	})

	t.Run("status in lists allowed statuses", func(t *testing.T) {
		r := newTestRMA(t)
		r.Status = StatusSubmitted
		err := r.CheckStatusIn("receive", StatusApproved, StatusReceived)
		requireReason(t, err, ReasonStatusNotAllowed)

		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, []string{"APPROVED", "RECEIVED"}, de.Details["allowedStatuses"])

		r.Status = StatusReceived
		assert.NoError(t, r.CheckStatusIn("receive", StatusApproved, StatusReceived))
	})

	t.Run("contest only once", func(t *testing.T) {
		r := newTestRMA(t)
		assert.NoError(t, r.CheckCanContest())
		contested := testNow
		r.ContestedAt = &contested
		requireReason(t, r.CheckCanContest(), ReasonAlreadyContested)
	})
}

func TestRMA_IsFirstReceipt(t *testing.T) {
	r := newTestRMA(t,
		LineSpec{PartNumber: "A", OrderedQty: 2, ReasonCode: "R"},
		LineSpec{PartNumber: "B", OrderedQty: 2, ReasonCode: "R"},
	)
	assert.False(t, r.IsFirstReceipt(), "draft is never a first receipt")

	r.Status = StatusApproved
	assert.True(t, r.IsFirstReceipt())

	r.Lines[1].ReceivedQty = 1
	assert.False(t, r.IsFirstReceipt())

	r.Status = StatusReceived
	r.Lines[1].ReceivedQty = 0
	assert.False(t, r.IsFirstReceipt())
}

func TestRMA_FinanceGate(t *testing.T) {
	r := newTestRMA(t,
		LineSpec{PartNumber: "A", OrderedQty: 1, ReasonCode: "R", Disposition: dispositionPtr(DispositionCredit)},
		LineSpec{PartNumber: "B", OrderedQty: 1, ReasonCode: "R", Disposition: dispositionPtr(DispositionCredit)},
		LineSpec{PartNumber: "C", OrderedQty: 1, ReasonCode: "R", Disposition: dispositionPtr(DispositionScrap)},
		LineSpec{PartNumber: "D", OrderedQty: 1, ReasonCode: "R"},
	)
	assert.Equal(t, 2, r.UnapprovedCreditLines())

	err := r.CheckFinanceGate()
	requireReason(t, err, ReasonUnapprovedCredit)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 2, de.Details["count"])

	approved := testNow
	r.Lines[0].FinanceApprovedAt = &approved
	r.Lines[1].FinanceApprovedAt = &approved
	assert.Zero(t, r.UnapprovedCreditLines())
	assert.NoError(t, r.CheckFinanceGate())
}

func TestRMA_FindLineAndNextNumber(t *testing.T) {
	r := newTestRMA(t,
		LineSpec{PartNumber: "A", OrderedQty: 1, ReasonCode: "R"},
		LineSpec{PartNumber: "B", OrderedQty: 1, ReasonCode: "R"},
	)

	line, err := r.FindLine(r.Lines[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "B", line.PartNumber)

	_, err = r.FindLine(uuid.New())
	assert.ErrorIs(t, err, ErrLineNotFound)
	assert.True(t, shared.IsNotFound(err))

	// numbers are not reused after a removal
	r.Lines = r.Lines[1:]
	assert.Equal(t, 3, r.NextLineNumber())
}

func TestLine_QuantityChecks(t *testing.T) {
	l := Line{OrderedQty: 5, ReceivedQty: 4, InspectedQty: 3}

	t.Run("receipt", func(t *testing.T) {
		assert.NoError(t, l.CheckReceipt(7), "over-receipt is allowed")
		assert.NoError(t, l.CheckReceipt(3))
		requireReason(t, l.CheckReceipt(2), ReasonInvalidQuantity)
		requireReason(t, l.CheckReceipt(-1), ReasonInvalidQuantity)
	})

	t.Run("inspection", func(t *testing.T) {
		assert.NoError(t, l.CheckInspection(0))
		assert.NoError(t, l.CheckInspection(4))
		requireReason(t, l.CheckInspection(5), ReasonInvalidQuantity)
		requireReason(t, l.CheckInspection(-1), ReasonInvalidQuantity)
	})
}

func TestLine_Flags(t *testing.T) {
	l := Line{}
	assert.False(t, l.IsCredit())
	assert.False(t, l.IsDispositionLocked())
	assert.False(t, l.IsFinanceApproved())

	l.Disposition = dispositionPtr(DispositionCredit)
	inspected := testNow
	l.QCInspectedAt = &inspected
	l.FinanceApprovedAt = &inspected
	assert.True(t, l.IsCredit())
	assert.True(t, l.IsDispositionLocked())
	assert.True(t, l.IsFinanceApproved())
}

func TestLine_Snapshot(t *testing.T) {
	cost := decimal.RequireFromString("9.99")
	l := Line{ID: uuid.New(), LineNumber: 2, PartNumber: "PN", OrderedQty: 3, ReasonCode: "R", UnitCost: &cost}

	snap := l.Snapshot()
	assert.Nil(t, snap["disposition"])
	assert.Equal(t, "9.99", snap["unitCost"])
	assert.Equal(t, 3, snap["orderedQty"])

	l.Disposition = dispositionPtr(DispositionReplacement)
	assert.Equal(t, "REPLACEMENT", l.Snapshot()["disposition"])
}

func TestRequireText(t *testing.T) {
	got, err := RequireText("reason", "  damaged in transit ")
	require.NoError(t, err)
	assert.Equal(t, "damaged in transit", got)

	_, err = RequireText("reason", " \t ")
	requireReason(t, err, ReasonReasonRequired)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "RMA-202603-", NumberPrefix(testNow))
	assert.Equal(t, "RMA-202603-000042", FormatNumber(testNow, 42))
	assert.Equal(t, "RMA-202612-1000000", FormatNumber(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), 1000000))
}

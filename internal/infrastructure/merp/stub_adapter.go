// Package merp holds the fulfillment adapters for the external ERP (MERP).
// Only a stub exists today; a live adapter slots in behind the same
// fulfillment.Adapter interface.
package merp

import (
	"context"
	"fmt"
	"time"

	"github.com/rms/backend/internal/domain/fulfillment"
	"go.uber.org/zap"
)

// StubAdapter acknowledges every request without contacting MERP.
// Reference ids look like STUB-CM-<unix-ms> and STUB-RO-<unix-ms>.
type StubAdapter struct {
	now    func() time.Time
	logger *zap.Logger
}

// NewStubAdapter creates a new StubAdapter
func NewStubAdapter(logger *zap.Logger) *StubAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubAdapter{now: time.Now, logger: logger}
}

func (a *StubAdapter) result(prefix string) fulfillment.Result {
	ref := fmt.Sprintf("%s-%d", prefix, a.now().UnixMilli())
	return fulfillment.Result{
		Success:     true,
		ReferenceID: &ref,
		Status:      fulfillment.ResultStub,
	}
}

// CreateCreditMemo returns a STUB result
func (a *StubAdapter) CreateCreditMemo(_ context.Context, payload fulfillment.CreditMemoPayload) (fulfillment.Result, error) {
	a.logger.Info("MERP stub: create credit memo",
		zap.String("rma_id", payload.RMAID.String()),
		zap.Int("lines", len(payload.Lines)),
	)
	return a.result("STUB-CM"), nil
}

// CreateReplacementOrder returns a STUB result
func (a *StubAdapter) CreateReplacementOrder(_ context.Context, payload fulfillment.ReplacementOrderPayload) (fulfillment.Result, error) {
	a.logger.Info("MERP stub: create replacement order",
		zap.String("rma_id", payload.RMAID.String()),
		zap.Int("lines", len(payload.Lines)),
	)
	return a.result("STUB-RO"), nil
}

var _ fulfillment.Adapter = (*StubAdapter)(nil)

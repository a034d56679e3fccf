// Package fulfillment issues ERP credit memos and replacement orders for
// resolved RMAs.
package fulfillment

import (
	"context"
	"fmt"
	"sort"

	"github.com/rms/backend/internal/domain/audit"
	"github.com/rms/backend/internal/domain/fulfillment"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/domain/rma"
	"github.com/rms/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AuditScope runs fn with an audit recorder bound to one transaction
type AuditScope interface {
	Execute(ctx context.Context, fn func(recorder audit.Recorder) error) error
}

// CallObserver is notified of every adapter call outcome
type CallObserver interface {
	RecordFulfillmentCall(ctx context.Context, operation fulfillment.OperationType, status fulfillment.ResultStatus)
}

// Dispatcher builds fulfillment payloads from a resolved RMA and sends them
// to the configured adapter. Failures are logged and never returned: the
// resolution has already committed.
type Dispatcher struct {
	adapter  fulfillment.Adapter
	audits   AuditScope
	observer CallObserver
	logger   *zap.Logger
}

// NewDispatcher creates a new Dispatcher. observer may be nil.
func NewDispatcher(adapter fulfillment.Adapter, audits AuditScope, observer CallObserver, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		adapter:  adapter,
		audits:   audits,
		observer: observer,
		logger:   logger,
	}
}

// DispatchResolved sends one credit memo covering every approved CREDIT line
// and one replacement order covering every REPLACEMENT line
func (d *Dispatcher) DispatchResolved(ctx context.Context, r *rma.RMA, actor identity.Actor) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fulfillment", "dispatch_resolved")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRMAID, r.ID.String(),
		telemetry.SpanAttrRMANumber, r.RMANumber,
	)

	if memo, ok := BuildCreditMemo(r, actor); ok {
		result, err := d.adapter.CreateCreditMemo(ctx, memo)
		d.complete(ctx, r, actor, fulfillment.OperationCreditMemo, audit.ActionMERPCreditTriggered, result, err)
	}
	if order, ok := BuildReplacementOrder(r, actor); ok {
		result, err := d.adapter.CreateReplacementOrder(ctx, order)
		d.complete(ctx, r, actor, fulfillment.OperationReplacementOrder, audit.ActionMERPReplacementTriggered, result, err)
	}
}

func (d *Dispatcher) complete(
	ctx context.Context,
	r *rma.RMA,
	actor identity.Actor,
	operation fulfillment.OperationType,
	action string,
	result fulfillment.Result,
	callErr error,
) {
	if callErr != nil {
		result = fulfillment.Result{Status: fulfillment.ResultFailed}
		msg := callErr.Error()
		result.ErrorMessage = &msg
	}
	if d.observer != nil {
		d.observer.RecordFulfillmentCall(ctx, operation, result.Status)
	}

	fields := []zap.Field{
		zap.String("rma_id", r.ID.String()),
		zap.String("rma_number", r.RMANumber),
		zap.String("operation", string(operation)),
		zap.String("status", string(result.Status)),
	}
	if callErr != nil || !result.Success {
		d.logger.Warn("Fulfillment call failed", append(fields, zap.Error(callErr))...)
	} else {
		d.logger.Info("Fulfillment call completed", fields...)
	}

	metadata := map[string]any{
		"referenceId": result.ReferenceID,
		"status":      string(result.Status),
	}
	if result.ErrorCode != nil {
		metadata["errorCode"] = *result.ErrorCode
	}
	if result.ErrorMessage != nil {
		metadata["errorMessage"] = *result.ErrorMessage
	}

	err := d.audits.Execute(ctx, func(recorder audit.Recorder) error {
		_, err := recorder.Record(ctx, audit.Entry{
			RMAID:     &r.ID,
			ActorID:   actor.ID,
			ActorRole: actor.Role.String(),
			Action:    action,
			Metadata:  metadata,
			IPAddress: audit.IPAddressFrom(ctx),
		})
		return err
	})
	if err != nil {
		d.logger.Warn("Failed to audit fulfillment call", append(fields, zap.Error(err))...)
	}
}

// BuildCreditMemo collects the Finance-approved CREDIT lines of r.
// It reports false when there is nothing to credit.
func BuildCreditMemo(r *rma.RMA, actor identity.Actor) (fulfillment.CreditMemoPayload, bool) {
	var lines []fulfillment.CreditMemoLine
	for i := range r.Lines {
		l := &r.Lines[i]
		if !l.IsCredit() || !l.IsFinanceApproved() {
			continue
		}
		lines = append(lines, fulfillment.CreditMemoLine{
			LineNumber:       l.LineNumber,
			PartNumber:       l.PartNumber,
			QuantityApproved: l.InspectedQty,
			UnitCost:         unitCost(l),
			CreditReason:     l.ReasonCode,
		})
	}
	if len(lines) == 0 {
		return fulfillment.CreditMemoPayload{}, false
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].LineNumber < lines[j].LineNumber })

	return fulfillment.CreditMemoPayload{
		RMAID:                 r.ID,
		RMANumber:             r.RMANumber,
		CustomerAccountNumber: customerAccount(r),
		Lines:                 lines,
		RequestedBy:           actor.ID.String(),
	}, true
}

// BuildReplacementOrder collects the REPLACEMENT lines of r.
// It reports false when nothing is to be replaced.
func BuildReplacementOrder(r *rma.RMA, actor identity.Actor) (fulfillment.ReplacementOrderPayload, bool) {
	var lines []fulfillment.ReplacementOrderLine
	for i := range r.Lines {
		l := &r.Lines[i]
		if l.Disposition == nil || *l.Disposition != rma.DispositionReplacement {
			continue
		}
		lines = append(lines, fulfillment.ReplacementOrderLine{
			LineNumber:       l.LineNumber,
			PartNumber:       l.PartNumber,
			QuantityApproved: l.InspectedQty,
			UnitCost:         unitCost(l),
		})
	}
	if len(lines) == 0 {
		return fulfillment.ReplacementOrderPayload{}, false
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].LineNumber < lines[j].LineNumber })

	return fulfillment.ReplacementOrderPayload{
		RMAID:                 r.ID,
		RMANumber:             r.RMANumber,
		CustomerAccountNumber: customerAccount(r),
		Lines:                 lines,
		RequestedBy:           actor.ID.String(),
	}, true
}

func unitCost(l *rma.Line) decimal.Decimal {
	if l.UnitCost == nil {
		return decimal.Zero
	}
	return *l.UnitCost
}

func customerAccount(r *rma.RMA) string {
	if r.CustomerID == nil {
		return fmt.Sprintf("BRANCH-%s", r.BranchID)
	}
	return r.CustomerID.String()
}

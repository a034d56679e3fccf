package merp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/fulfillment"
	"go.uber.org/zap"
)

// LoggingAdapter writes one integration log row per call of the wrapped
// adapter. A failed log write is reported but never changes the result.
type LoggingAdapter struct {
	next   fulfillment.Adapter
	logs   fulfillment.IntegrationLogRepository
	now    func() time.Time
	logger *zap.Logger
}

// NewLoggingAdapter wraps next
func NewLoggingAdapter(next fulfillment.Adapter, logs fulfillment.IntegrationLogRepository, logger *zap.Logger) *LoggingAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingAdapter{
		next:   next,
		logs:   logs,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// CreateCreditMemo forwards the call and logs it
func (a *LoggingAdapter) CreateCreditMemo(ctx context.Context, payload fulfillment.CreditMemoPayload) (fulfillment.Result, error) {
	result, err := a.next.CreateCreditMemo(ctx, payload)
	a.record(ctx, payload.RMAID, fulfillment.OperationCreditMemo, payload, result, err)
	return result, err
}

// CreateReplacementOrder forwards the call and logs it
func (a *LoggingAdapter) CreateReplacementOrder(ctx context.Context, payload fulfillment.ReplacementOrderPayload) (fulfillment.Result, error) {
	result, err := a.next.CreateReplacementOrder(ctx, payload)
	a.record(ctx, payload.RMAID, fulfillment.OperationReplacementOrder, payload, result, err)
	return result, err
}

func (a *LoggingAdapter) record(
	ctx context.Context,
	rmaID uuid.UUID,
	operation fulfillment.OperationType,
	payload any,
	result fulfillment.Result,
	callErr error,
) {
	if callErr != nil {
		msg := callErr.Error()
		result = fulfillment.Result{Status: fulfillment.ResultFailed, ErrorMessage: &msg}
	}

	request, err := json.Marshal(payload)
	if err != nil {
		a.logger.Warn("Failed to encode MERP request for integration log", zap.Error(err))
		return
	}
	response, err := json.Marshal(result)
	if err != nil {
		a.logger.Warn("Failed to encode MERP response for integration log", zap.Error(err))
		return
	}

	entry := &fulfillment.IntegrationLog{
		ID:              uuid.New(),
		RMAID:           rmaID,
		OperationType:   operation,
		RequestPayload:  request,
		ResponsePayload: response,
		ReferenceID:     result.ReferenceID,
		Status:          result.Status,
		CreatedAt:       a.now(),
	}
	if err := a.logs.Create(ctx, entry); err != nil {
		a.logger.Warn("Failed to write MERP integration log",
			zap.String("rma_id", rmaID.String()),
			zap.String("operation", string(operation)),
			zap.Error(err),
		)
	}
}

var _ fulfillment.Adapter = (*LoggingAdapter)(nil)

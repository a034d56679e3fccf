package rma

import (
	"context"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/audit"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/domain/rma"
	"github.com/rms/backend/internal/domain/shared"
	"github.com/rms/backend/internal/infrastructure/telemetry"
)

// QueryService serves the branch-scoped read side of RMAs
type QueryService struct {
	reader rma.Reader
	audits audit.Reader
}

// NewQueryService creates a new QueryService
func NewQueryService(reader rma.Reader, audits audit.Reader) *QueryService {
	return &QueryService{
		reader: reader,
		audits: audits,
	}
}

// Get returns an RMA visible to actor. RMAs outside the actor's branches are
// reported as not found.
func (s *QueryService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*RMAResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "rma", "get")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrRMAID, id.String())

	r, err := s.reader.FindByIDBranchScoped(ctx, actor, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if r == nil {
		return nil, rma.ErrRMANotFound
	}
	return ToRMAResponse(r), nil
}

// List returns RMAs visible to actor, newest first
func (s *QueryService) List(ctx context.Context, actor identity.Actor, filter rma.ListFilter) (shared.Paginated[RMAListItemResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "rma", "list")
	defer span.End()

	filter.Page = filter.Page.Normalize(rma.DefaultListTake, rma.MaxTake)
	if filter.Status != nil && !filter.Status.IsValid() {
		return shared.Paginated[RMAListItemResponse]{}, shared.NewDomainError(shared.CodeInvalidInput, "Invalid status filter: "+filter.Status.String())
	}

	items, total, err := s.reader.FindManyBranchScoped(ctx, actor, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[RMAListItemResponse]{}, err
	}
	return shared.NewPaginated(toListItems(items), total, filter.Page), nil
}

// ApprovalQueue returns SUBMITTED and CONTESTED RMAs awaiting a decision, oldest first
func (s *QueryService) ApprovalQueue(ctx context.Context, actor identity.Actor, filter rma.QueueFilter) (shared.Paginated[RMAListItemResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "rma", "approval_queue")
	defer span.End()

	filter.Page = filter.Page.Normalize(rma.DefaultApprovalQueueTake, rma.MaxTake)
	items, total, err := s.reader.FindForApprovalQueue(ctx, actor, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[RMAListItemResponse]{}, err
	}
	return shared.NewPaginated(toListItems(items), total, filter.Page), nil
}

// CreditApprovalQueue returns CREDIT lines on QC_COMPLETE RMAs still awaiting Finance
func (s *QueryService) CreditApprovalQueue(ctx context.Context, actor identity.Actor, filter rma.QueueFilter) (shared.Paginated[CreditApprovalLineResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "rma", "credit_approval_queue")
	defer span.End()

	filter.Page = filter.Page.Normalize(rma.DefaultCreditQueueTake, rma.MaxTake)
	lines, total, err := s.reader.FindCreditApprovalLines(ctx, actor, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[CreditApprovalLineResponse]{}, err
	}

	items := make([]CreditApprovalLineResponse, len(lines))
	for i := range lines {
		items[i] = ToCreditApprovalLineResponse(&lines[i])
	}
	return shared.NewPaginated(items, total, filter.Page), nil
}

// AuditTrail returns the chronological audit events of an RMA visible to actor
func (s *QueryService) AuditTrail(ctx context.Context, actor identity.Actor, id uuid.UUID) ([]AuditEventResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "rma", "audit_trail")
	defer span.End()

	r, err := s.reader.FindByIDBranchScoped(ctx, actor, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if r == nil {
		return nil, rma.ErrRMANotFound
	}

	events, err := s.audits.FindByRMA(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	result := make([]AuditEventResponse, len(events))
	for i := range events {
		result[i] = ToAuditEventResponse(&events[i])
	}
	return result, nil
}

func toListItems(items []rma.RMA) []RMAListItemResponse {
	result := make([]RMAListItemResponse, len(items))
	for i := range items {
		result[i] = ToRMAListItemResponse(&items[i])
	}
	return result
}

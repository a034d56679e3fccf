package rma

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/audit"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/domain/rma"
	"github.com/rms/backend/internal/domain/shared"
	"github.com/rms/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const defaultMaxNumberAttempts = 5

// LifecycleService drives an RMA through its status lifecycle and edits its
// lines. Every operation runs in a single transaction that locks the RMA row,
// checks its guards against the locked state, writes and records exactly one
// audit event.
type LifecycleService struct {
	reader            rma.Reader
	scope             TransactionScope
	sequence          NumberSequence
	dispatcher        FulfillmentDispatcher
	observer          TransitionObserver
	logger            *zap.Logger
	now               func() time.Time
	maxNumberAttempts int
}

// LifecycleOption configures a LifecycleService
type LifecycleOption func(*LifecycleService)

// WithNumberSequence allocates RMA numbers from seq instead of counting rows
func WithNumberSequence(seq NumberSequence) LifecycleOption {
	return func(s *LifecycleService) {
		s.sequence = seq
	}
}

// WithFulfillmentDispatcher triggers ERP documents after an RMA is resolved
func WithFulfillmentDispatcher(d FulfillmentDispatcher) LifecycleOption {
	return func(s *LifecycleService) {
		s.dispatcher = d
	}
}

// WithTransitionObserver reports committed status changes to o
func WithTransitionObserver(o TransitionObserver) LifecycleOption {
	return func(s *LifecycleService) {
		s.observer = o
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) LifecycleOption {
	return func(s *LifecycleService) {
		s.now = now
	}
}

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) LifecycleOption {
	return func(s *LifecycleService) {
		s.logger = logger
	}
}

// WithMaxNumberAttempts bounds the retries on an RMA number collision
func WithMaxNumberAttempts(n int) LifecycleOption {
	return func(s *LifecycleService) {
		if n > 0 {
			s.maxNumberAttempts = n
		}
	}
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(reader rma.Reader, scope TransactionScope, opts ...LifecycleOption) *LifecycleService {
	s := &LifecycleService{
		reader:            reader,
		scope:             scope,
		logger:            zap.NewNop(),
		now:               func() time.Time { return time.Now().UTC() },
		maxNumberAttempts: defaultMaxNumberAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// mutation is the guarded body of a lifecycle operation. r is the locked
// snapshot of the RMA; the body must check every guard before its first write.
type mutation func(ctx context.Context, tx TransactionalRepositories, r *rma.RMA, now time.Time) error

func (s *LifecycleService) mutate(ctx context.Context, operation string, id uuid.UUID, actor identity.Actor, fn mutation) (*rma.RMA, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "rma", operation)
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRMAID, id.String(),
		telemetry.SpanAttrActorRole, actor.Role.String(),
	)

	var from, to rma.Status
	err := s.scope.Execute(ctx, func(tx TransactionalRepositories) error {
		r, err := tx.RMAs().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if r == nil || !actor.CanSeeBranch(r.BranchID) {
			return rma.ErrRMANotFound
		}
		from = r.Status
		return fn(ctx, tx, r, s.now())
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	updated, err := s.reader.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if updated == nil {
		return nil, rma.ErrRMANotFound
	}

	to = updated.Status
	if to != from {
		s.logger.Info("RMA status changed",
			zap.String("operation", operation),
			zap.String("rma_id", id.String()),
			zap.String("rma_number", updated.RMANumber),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
			zap.String("actor_id", actor.ID.String()),
		)
		if s.observer != nil {
			s.observer.RecordTransition(ctx, operation, from, to)
		}
	}
	telemetry.SetOK(span)
	return updated, nil
}

// record appends one audit event attributed to actor
func record(ctx context.Context, tx TransactionalRepositories, actor identity.Actor, entry audit.Entry) error {
	entry.ActorID = actor.ID
	entry.ActorRole = actor.Role.String()
	if entry.IPAddress == nil {
		entry.IPAddress = audit.IPAddressFrom(ctx)
	}
	_, err := tx.Audit().Record(ctx, entry)
	return err
}

// checkTransition asserts the transition table first, then the operation's
// own source status requirement.
func checkTransition(r *rma.RMA, operation string, to rma.Status, from ...rma.Status) error {
	if err := rma.AssertValidTransition(r.Status, to); err != nil {
		return err
	}
	return r.CheckStatusIn(operation, from...)
}

func statusEntry(r *rma.RMA, action string, to rma.Status) audit.Entry {
	fromStatus := r.Status.String()
	toStatus := to.String()
	return audit.Entry{
		RMAID:      &r.ID,
		Action:     action,
		FromStatus: &fromStatus,
		ToStatus:   &toStatus,
	}
}

// transitionSpec describes a plain status change with an optional header patch
type transitionSpec struct {
	operation string
	action    string
	to        rma.Status
	from      []rma.Status
	guard     func(r *rma.RMA) error
	patch     *rma.Patch
	newValue  map[string]any
	metadata  func(r *rma.RMA) map[string]any
}

func (s *LifecycleService) transition(ctx context.Context, actor identity.Actor, id uuid.UUID, spec transitionSpec) (*rma.RMA, error) {
	return s.mutate(ctx, spec.operation, id, actor, func(ctx context.Context, tx TransactionalRepositories, r *rma.RMA, now time.Time) error {
		if err := checkTransition(r, spec.operation, spec.to, spec.from...); err != nil {
			return err
		}
		if spec.guard != nil {
			if err := spec.guard(r); err != nil {
				return err
			}
		}

		entry := statusEntry(r, spec.action, spec.to)
		entry.NewValue = spec.newValue
		if spec.metadata != nil {
			entry.Metadata = spec.metadata(r)
		}
		if spec.patch != nil {
			if err := tx.RMAs().UpdateRMA(ctx, r.ID, *spec.patch, now); err != nil {
				return err
			}
		}
		if err := tx.RMAs().UpdateStatus(ctx, r.ID, spec.to, now); err != nil {
			return err
		}
		return record(ctx, tx, actor, entry)
	})
}

// CreateDraft creates a new RMA in DRAFT with its lines and allocates its number
func (s *LifecycleService) CreateDraft(ctx context.Context, actor identity.Actor, input CreateDraftInput) (*rma.RMA, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "rma", "create_draft")
	defer span.End()

	if !actor.CanSeeBranch(input.BranchID) {
		err := shared.NewDomainError(shared.CodeForbidden, "Cannot create an RMA for a branch outside your assignment")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if len(input.Lines) == 0 {
		err := shared.NewPreconditionError(rma.ReasonNoLines, "At least one line item is required to create an RMA")
		telemetry.RecordError(span, err)
		return nil, err
	}
	specs := make([]rma.LineSpec, len(input.Lines))
	for i, l := range input.Lines {
		specs[i] = l.spec()
		if err := specs[i].Validate(); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	var created *rma.RMA
	var lastErr error
	for attempt := 1; attempt <= s.maxNumberAttempts; attempt++ {
		now := s.now()
		resync := attempt > 1
		lastErr = s.scope.Execute(ctx, func(tx TransactionalRepositories) error {
			number, err := s.allocateNumber(ctx, tx.RMAs(), now, resync)
			if err != nil {
				return err
			}

			r, err := rma.NewRMA(number, input.BranchID, input.CustomerID, &actor.ID, specs, now)
			if err != nil {
				return err
			}
			if err := tx.RMAs().CreateRMA(ctx, r); err != nil {
				return err
			}

			toStatus := rma.StatusDraft.String()
			created = r
			return record(ctx, tx, actor, audit.Entry{
				RMAID:    &r.ID,
				Action:   audit.ActionRMACreated,
				ToStatus: &toStatus,
				NewValue: r.Snapshot(),
			})
		})
		if !errors.Is(lastErr, rma.ErrNumberConflict) {
			break
		}
		s.logger.Warn("RMA number collision, retrying",
			zap.Int("attempt", attempt),
			zap.String("branch_id", input.BranchID.String()),
		)
	}
	if lastErr != nil {
		telemetry.RecordError(span, lastErr)
		return nil, lastErr
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrRMAID, created.ID.String(),
		telemetry.SpanAttrRMANumber, created.RMANumber,
	)
	s.logger.Info("RMA draft created",
		zap.String("rma_id", created.ID.String()),
		zap.String("rma_number", created.RMANumber),
		zap.String("branch_id", created.BranchID.String()),
		zap.Int("lines", len(created.Lines)),
	)

	result, err := s.reader.FindByID(ctx, created.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if result == nil {
		return created, nil
	}
	telemetry.SetOK(span)
	return result, nil
}

// allocateNumber returns the next RMA number for the month of now. With
// resync set the sequence is first raised to the stored count, so a counter
// left behind by count-based allocation stops handing out taken numbers.
func (s *LifecycleService) allocateNumber(ctx context.Context, store rma.Store, now time.Time, resync bool) (string, error) {
	if s.sequence == nil {
		return store.GenerateRMANumber(ctx, now)
	}

	prefix := rma.NumberPrefix(now)
	period := now.Format("200601")
	if resync {
		count, err := store.CountNumbersWithPrefix(ctx, prefix)
		if err != nil {
			return "", err
		}
		if _, err := s.sequence.Raise(ctx, period, count); err != nil {
			s.logger.Warn("RMA number sequence resync failed, falling back to count", zap.Error(err))
			return store.GenerateRMANumber(ctx, now)
		}
	}

	seq, err := s.sequence.Next(ctx, period, func(ctx context.Context) (int64, error) {
		return store.CountNumbersWithPrefix(ctx, prefix)
	})
	if err != nil {
		// Fall back to the count so an unavailable counter never blocks intake
		s.logger.Warn("RMA number sequence unavailable, falling back to count", zap.Error(err))
		return store.GenerateRMANumber(ctx, now)
	}
	return rma.FormatNumber(now, seq), nil
}

// Submit sends a DRAFT RMA for review, or returns an INFO_REQUIRED RMA to review
func (s *LifecycleService) Submit(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error) {
	return s.transition(ctx, actor, id, transitionSpec{
		operation: "submit",
		action:    audit.ActionRMASubmitted,
		to:        rma.StatusSubmitted,
		from:      []rma.Status{rma.StatusDraft, rma.StatusInfoRequired},
		guard:     func(r *rma.RMA) error { return r.CheckHasLines() },
		metadata:  submitCycle,
	})
}

// Resubmit returns an INFO_REQUIRED RMA to review after the customer answered
func (s *LifecycleService) Resubmit(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error) {
	return s.transition(ctx, actor, id, transitionSpec{
		operation: "resubmit",
		action:    audit.ActionRMASubmitted,
		to:        rma.StatusSubmitted,
		from:      []rma.Status{rma.StatusInfoRequired},
		guard:     func(r *rma.RMA) error { return r.CheckHasLines() },
		metadata:  submitCycle,
	})
}

func submitCycle(r *rma.RMA) map[string]any {
	if r.Status == rma.StatusInfoRequired {
		return map[string]any{"cycle": "resubmit"}
	}
	return nil
}

// PlaceInfoRequired asks the customer for more information on a SUBMITTED RMA.
// The note is optional.
func (s *LifecycleService) PlaceInfoRequired(ctx context.Context, actor identity.Actor, id uuid.UUID, note string) (*rma.RMA, error) {
	spec := transitionSpec{
		operation: "place_info_required",
		action:    audit.ActionRMAInfoRequired,
		to:        rma.StatusInfoRequired,
		from:      []rma.Status{rma.StatusSubmitted},
	}
	if note = strings.TrimSpace(note); note != "" {
		spec.newValue = map[string]any{"note": note}
	}
	return s.transition(ctx, actor, id, spec)
}

// Approve accepts a SUBMITTED RMA
func (s *LifecycleService) Approve(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error) {
	return s.transition(ctx, actor, id, transitionSpec{
		operation: "approve",
		action:    audit.ActionRMAApproved,
		to:        rma.StatusApproved,
		from:      []rma.Status{rma.StatusSubmitted},
	})
}

// Reject declines a SUBMITTED RMA
func (s *LifecycleService) Reject(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*rma.RMA, error) {
	reason, err := rma.RequireText("rejectionReason", reason)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, transitionSpec{
		operation: "reject",
		action:    audit.ActionRMARejected,
		to:        rma.StatusRejected,
		from:      []rma.Status{rma.StatusSubmitted},
		patch:     &rma.Patch{RejectionReason: &reason},
		newValue:  map[string]any{"rejectionReason": reason},
	})
}

// Cancel withdraws an RMA before any merchandise was received
func (s *LifecycleService) Cancel(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*rma.RMA, error) {
	reason, err := rma.RequireText("cancellationReason", reason)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, transitionSpec{
		operation: "cancel",
		action:    audit.ActionRMACancelled,
		to:        rma.StatusCancelled,
		from:      []rma.Status{rma.StatusDraft, rma.StatusSubmitted, rma.StatusInfoRequired, rma.StatusApproved},
		patch:     &rma.Patch{CancellationReason: &reason},
		newValue:  map[string]any{"cancellationReason": reason},
	})
}

// Contest disputes a rejection. An RMA can be contested once.
// REJECTED is terminal in the transition table, so contest checks the source
// status itself instead of asserting the table.
func (s *LifecycleService) Contest(ctx context.Context, actor identity.Actor, id uuid.UUID, disputeReason string) (*rma.RMA, error) {
	disputeReason, err := rma.RequireText("disputeReason", disputeReason)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, "contest", id, actor, func(ctx context.Context, tx TransactionalRepositories, r *rma.RMA, now time.Time) error {
		if err := r.CheckCanContest(); err != nil {
			return err
		}
		if err := r.CheckStatusIn("contest", rma.StatusRejected); err != nil {
			return err
		}

		patch := rma.Patch{DisputeReason: &disputeReason, ContestedAt: &now}
		if err := tx.RMAs().UpdateRMA(ctx, r.ID, patch, now); err != nil {
			return err
		}
		if err := tx.RMAs().UpdateStatus(ctx, r.ID, rma.StatusContested, now); err != nil {
			return err
		}

		entry := statusEntry(r, audit.ActionRMAContested, rma.StatusContested)
		entry.NewValue = map[string]any{
			"disputeReason": disputeReason,
			"contestedAt":   now,
		}
		return record(ctx, tx, actor, entry)
	})
}

// Overturn accepts a contest and approves the RMA
func (s *LifecycleService) Overturn(ctx context.Context, actor identity.Actor, id uuid.UUID, note string) (*rma.RMA, error) {
	return s.resolveContest(ctx, actor, id, "overturn", audit.ActionRMAApproved, rma.StatusApproved, "overturned", note)
}

// Uphold confirms the rejection and closes the RMA
func (s *LifecycleService) Uphold(ctx context.Context, actor identity.Actor, id uuid.UUID, note string) (*rma.RMA, error) {
	return s.resolveContest(ctx, actor, id, "uphold", audit.ActionRMAClosed, rma.StatusClosed, "upheld", note)
}

func (s *LifecycleService) resolveContest(ctx context.Context, actor identity.Actor, id uuid.UUID, operation, action string, to rma.Status, tag, note string) (*rma.RMA, error) {
	note, err := rma.RequireText("contestResolutionNote", note)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, transitionSpec{
		operation: operation,
		action:    action,
		to:        to,
		from:      []rma.Status{rma.StatusContested},
		patch:     &rma.Patch{ContestResolutionNote: &note},
		newValue:  map[string]any{"contestResolutionNote": note},
		metadata:  func(*rma.RMA) map[string]any { return map[string]any{tag: true} },
	})
}

// AddLine appends a line to an editable RMA
func (s *LifecycleService) AddLine(ctx context.Context, actor identity.Actor, id uuid.UUID, input LineInput) (*rma.RMA, error) {
	spec := input.spec()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, "add_line", id, actor, func(ctx context.Context, tx TransactionalRepositories, r *rma.RMA, now time.Time) error {
		if err := r.CheckLinesEditable(); err != nil {
			return err
		}

		line, err := rma.NewLine(r.ID, r.NextLineNumber(), spec, now)
		if err != nil {
			return err
		}
		if err := tx.RMAs().AddLine(ctx, &line); err != nil {
			return err
		}
		return record(ctx, tx, actor, audit.Entry{
			RMAID:     &r.ID,
			RMALineID: &line.ID,
			Action:    audit.ActionLineAdded,
			NewValue:  line.Snapshot(),
		})
	})
}

// UpdateLine changes the editable fields of a line. A disposition change is
// refused once the line has been QC-inspected.
func (s *LifecycleService) UpdateLine(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID, input UpdateLineInput) (*rma.RMA, error) {
	newValue, err := validateLineUpdate(input)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, "update_line", id, actor, func(ctx context.Context, tx TransactionalRepositories, r *rma.RMA, now time.Time) error {
		if err := r.CheckLinesEditable(); err != nil {
			return err
		}
		line, err := r.FindLine(lineID)
		if err != nil {
			return err
		}
		if input.DispositionSet && line.IsDispositionLocked() {
			return shared.NewPreconditionError(rma.ReasonDispositionLocked,
				"Disposition cannot be changed after QC inspection").WithDetail("lineId", lineID.String())
		}

		patch := rma.LinePatch{
			PartNumber:     input.PartNumber,
			OrderedQty:     input.OrderedQty,
			ReasonCode:     input.ReasonCode,
			UnitCost:       input.UnitCost,
			DispositionSet: input.DispositionSet,
			Disposition:    input.Disposition,
		}
		// A line that stops being a credit line loses its Finance approval
		if input.DispositionSet && line.IsFinanceApproved() &&
			(input.Disposition == nil || *input.Disposition != rma.DispositionCredit) {
			patch.ClearFinanceApproval = true
		}

		oldValue := line.Snapshot()
		if err := tx.RMAs().UpdateLine(ctx, lineID, patch, now); err != nil {
			return err
		}

		action := audit.ActionLineUpdated
		if input.DispositionSet {
			action = audit.ActionDispositionSet
		}
		return record(ctx, tx, actor, audit.Entry{
			RMAID:     &r.ID,
			RMALineID: &lineID,
			Action:    action,
			OldValue:  oldValue,
			NewValue:  newValue,
		})
	})
}

func validateLineUpdate(input UpdateLineInput) (map[string]any, error) {
	newValue := make(map[string]any)
	if input.PartNumber != nil {
		if *input.PartNumber == "" {
			return nil, shared.NewPreconditionError(rma.ReasonInvalidLine, "Part number cannot be empty")
		}
		newValue["partNumber"] = *input.PartNumber
	}
	if input.OrderedQty != nil {
		if *input.OrderedQty <= 0 {
			return nil, shared.NewPreconditionError(rma.ReasonInvalidQuantity, "Ordered quantity must be a positive integer")
		}
		newValue["orderedQty"] = *input.OrderedQty
	}
	if input.ReasonCode != nil {
		if *input.ReasonCode == "" {
			return nil, shared.NewPreconditionError(rma.ReasonInvalidLine, "Reason code cannot be empty")
		}
		newValue["reasonCode"] = *input.ReasonCode
	}
	if input.UnitCost != nil {
		if input.UnitCost.IsNegative() {
			return nil, shared.NewPreconditionError(rma.ReasonInvalidLine, "Unit cost cannot be negative")
		}
		newValue["unitCost"] = input.UnitCost.String()
	}
	if input.DispositionSet {
		if input.Disposition != nil && !input.Disposition.IsValid() {
			return nil, shared.NewPreconditionError(rma.ReasonInvalidDisposition, "Invalid disposition: "+string(*input.Disposition))
		}
		newValue["disposition"] = dispositionString(input.Disposition)
	}
	if len(newValue) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "No fields to update")
	}
	return newValue, nil
}

// RemoveLine deletes a line from an editable RMA
func (s *LifecycleService) RemoveLine(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID) (*rma.RMA, error) {
	return s.mutate(ctx, "remove_line", id, actor, func(ctx context.Context, tx TransactionalRepositories, r *rma.RMA, now time.Time) error {
		if err := r.CheckLinesEditable(); err != nil {
			return err
		}
		line, err := r.FindLine(lineID)
		if err != nil {
			return err
		}
		if err := tx.RMAs().RemoveLine(ctx, lineID); err != nil {
			return err
		}
		return record(ctx, tx, actor, audit.Entry{
			RMAID:     &r.ID,
			RMALineID: &lineID,
			Action:    audit.ActionLineUpdated,
			OldValue: map[string]any{
				"partNumber": line.PartNumber,
				"orderedQty": line.OrderedQty,
				"removed":    true,
			},
		})
	})
}

// SplitLine replaces one line with two or more lines whose ordered
// quantities add up to the original's.
func (s *LifecycleService) SplitLine(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID, splits []SplitInput) (*rma.RMA, error) {
	if len(splits) < 2 {
		return nil, shared.NewPreconditionError(rma.ReasonSplitTooFew, "A split needs at least two resulting lines").
			WithDetail("count", len(splits))
	}
	for _, sp := range splits {
		if sp.OrderedQty <= 0 {
			return nil, shared.NewPreconditionError(rma.ReasonInvalidQuantity, "Each split quantity must be a positive integer")
		}
		if sp.Disposition != nil && !sp.Disposition.IsValid() {
			return nil, shared.NewPreconditionError(rma.ReasonInvalidDisposition, "Invalid disposition: "+string(*sp.Disposition))
		}
	}

	return s.mutate(ctx, "split_line", id, actor, func(ctx context.Context, tx TransactionalRepositories, r *rma.RMA, now time.Time) error {
		if err := r.CheckLinesEditable(); err != nil {
			return err
		}
		original, err := r.FindLine(lineID)
		if err != nil {
			return err
		}

		total := 0
		for _, sp := range splits {
			total += sp.OrderedQty
		}
		if total != original.OrderedQty {
			return shared.NewPreconditionError(rma.ReasonSplitQuantityMismatch,
				"Split quantities must add up to the original ordered quantity").
				WithDetail("expected", original.OrderedQty).
				WithDetail("actual", total)
		}

		// Build every resulting line before the first write
		next := r.NextLineNumber()
		lines := make([]rma.Line, len(splits))
		for i, sp := range splits {
			spec := rma.LineSpec{
				PartNumber:  original.PartNumber,
				OrderedQty:  sp.OrderedQty,
				ReasonCode:  original.ReasonCode,
				Disposition: original.Disposition,
				UnitCost:    original.UnitCost,
			}
			if sp.ReasonCode != nil {
				spec.ReasonCode = *sp.ReasonCode
			}
			if sp.Disposition != nil {
				spec.Disposition = sp.Disposition
			}
			line, err := rma.NewLine(r.ID, next+i, spec, now)
			if err != nil {
				return err
			}
			lines[i] = line
		}

		before := original.Snapshot()
		if err := tx.RMAs().RemoveLine(ctx, lineID); err != nil {
			return err
		}
		after := make([]map[string]any, len(lines))
		for i := range lines {
			if err := tx.RMAs().AddLine(ctx, &lines[i]); err != nil {
				return err
			}
			after[i] = lines[i].Snapshot()
		}

		return record(ctx, tx, actor, audit.Entry{
			RMAID:     &r.ID,
			RMALineID: &lineID,
			Action:    audit.ActionLineSplit,
			OldValue:  before,
			NewValue:  map[string]any{"lines": after},
		})
	})
}

// RecordReceipt sets the received quantity of a line. The first non-zero
// receipt on an APPROVED RMA also moves it to RECEIVED; that call alone carries
// the status change in its audit event.
func (s *LifecycleService) RecordReceipt(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID, receivedQty int) (*rma.RMA, error) {
	return s.mutate(ctx, "record_receipt", id, actor, func(ctx context.Context, tx TransactionalRepositories, r *rma.RMA, now time.Time) error {
		if err := r.CheckStatusIn("record receipt", rma.StatusApproved, rma.StatusReceived); err != nil {
			return err
		}
		line, err := r.FindLine(lineID)
		if err != nil {
			return err
		}
		if err := line.CheckReceipt(receivedQty); err != nil {
			return err
		}

		first := receivedQty > 0 && r.IsFirstReceipt()
		if first {
			if err := rma.AssertValidTransition(r.Status, rma.StatusReceived); err != nil {
				return err
			}
		}

		oldQty := line.ReceivedQty
		if err := tx.RMAs().UpdateLineReceipt(ctx, lineID, receivedQty, now); err != nil {
			return err
		}

		entry := audit.Entry{
			RMAID:     &r.ID,
			RMALineID: &lineID,
			Action:    audit.ActionLineUpdated,
			OldValue:  map[string]any{"receivedQty": oldQty},
			NewValue:  map[string]any{"receivedQty": receivedQty},
		}
		if first {
			if err := tx.RMAs().UpdateStatus(ctx, r.ID, rma.StatusReceived, now); err != nil {
				return err
			}
			transition := statusEntry(r, audit.ActionRMAReceived, rma.StatusReceived)
			entry.Action = transition.Action
			entry.FromStatus = transition.FromStatus
			entry.ToStatus = transition.ToStatus
		}
		return record(ctx, tx, actor, entry)
	})
}

// RecordQCInspection stores the QC outcome of a line, which locks its disposition
func (s *LifecycleService) RecordQCInspection(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID, input QCInspectionInput) (*rma.RMA, error) {
	if input.QCDispositionRecommendation != nil && !input.QCDispositionRecommendation.IsValid() {
		return nil, shared.NewPreconditionError(rma.ReasonInvalidDisposition,
			"Invalid disposition recommendation: "+string(*input.QCDispositionRecommendation))
	}
	return s.mutate(ctx, "record_qc_inspection", id, actor, func(ctx context.Context, tx TransactionalRepositories, r *rma.RMA, now time.Time) error {
		if err := r.CheckStatusIn("record QC inspection", rma.StatusReceived); err != nil {
			return err
		}
		line, err := r.FindLine(lineID)
		if err != nil {
			return err
		}
		if err := line.CheckInspection(input.InspectedQty); err != nil {
			return err
		}

		oldValue := map[string]any{
			"inspectedQty":  line.InspectedQty,
			"qcInspectedAt": line.QCInspectedAt,
		}
		result := rma.QCResult{
			InspectedQty:                input.InspectedQty,
			InspectedAt:                 now,
			QCPass:                      input.QCPass,
			QCFindings:                  input.QCFindings,
			QCDispositionRecommendation: input.QCDispositionRecommendation,
		}
		if err := tx.RMAs().UpdateLineQC(ctx, lineID, result, now); err != nil {
			return err
		}

		newValue := map[string]any{
			"inspectedQty":                input.InspectedQty,
			"qcInspectedAt":               now,
			"qcPass":                      input.QCPass,
			"qcFindings":                  input.QCFindings,
			"qcDispositionRecommendation": dispositionString(input.QCDispositionRecommendation),
		}
		return record(ctx, tx, actor, audit.Entry{
			RMAID:     &r.ID,
			RMALineID: &lineID,
			Action:    audit.ActionLineUpdated,
			OldValue:  oldValue,
			NewValue:  newValue,
		})
	})
}

// CompleteQC marks inspection of a RECEIVED RMA as finished
func (s *LifecycleService) CompleteQC(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error) {
	return s.transition(ctx, actor, id, transitionSpec{
		operation: "complete_qc",
		action:    audit.ActionStatusChanged,
		to:        rma.StatusQCComplete,
		from:      []rma.Status{rma.StatusReceived},
	})
}

// ApproveLineCredit records Finance approval of a CREDIT line
func (s *LifecycleService) ApproveLineCredit(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID) (*rma.RMA, error) {
	return s.mutate(ctx, "approve_line_credit", id, actor, func(ctx context.Context, tx TransactionalRepositories, r *rma.RMA, now time.Time) error {
		if err := r.CheckStatusIn("approve line credit", rma.StatusReceived, rma.StatusQCComplete); err != nil {
			return err
		}
		line, err := r.FindLine(lineID)
		if err != nil {
			return err
		}
		if !line.IsCredit() {
			return shared.NewPreconditionError(rma.ReasonNotCreditLine, "Only CREDIT lines require finance approval").
				WithDetail("lineId", lineID.String())
		}
		if line.IsFinanceApproved() {
			return shared.NewPreconditionError(rma.ReasonAlreadyApproved, "Line credit has already been approved").
				WithDetail("lineId", lineID.String())
		}

		if err := tx.RMAs().UpdateLineFinanceApproval(ctx, lineID, actor.ID, now); err != nil {
			return err
		}
		return record(ctx, tx, actor, audit.Entry{
			RMAID:     &r.ID,
			RMALineID: &lineID,
			Action:    audit.ActionFinanceApproved,
			NewValue: map[string]any{
				"financeApprovedAt":   now,
				"financeApprovedById": actor.ID.String(),
			},
		})
	})
}

// Resolve finishes a QC_COMPLETE RMA once every CREDIT line is Finance-approved,
// then hands it to the fulfillment dispatcher.
func (s *LifecycleService) Resolve(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error) {
	resolved, err := s.transition(ctx, actor, id, transitionSpec{
		operation: "resolve",
		action:    audit.ActionRMAResolved,
		to:        rma.StatusResolved,
		from:      []rma.Status{rma.StatusQCComplete},
		guard:     func(r *rma.RMA) error { return r.CheckFinanceGate() },
	})
	if err != nil {
		return nil, err
	}
	if s.dispatcher != nil {
		s.dispatcher.DispatchResolved(ctx, resolved, actor)
	}
	return resolved, nil
}

// Close archives a RESOLVED RMA
func (s *LifecycleService) Close(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error) {
	return s.transition(ctx, actor, id, transitionSpec{
		operation: "close",
		action:    audit.ActionRMAClosed,
		to:        rma.StatusClosed,
		from:      []rma.Status{rma.StatusResolved},
	})
}

package rma

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/attachment"
	"github.com/rms/backend/internal/domain/audit"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/domain/rma"
	"github.com/rms/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	// MaxCommentLength bounds the body of a comment
	MaxCommentLength = 4000

	defaultPresignExpiry = 15 * time.Minute
)

// ErrAttachmentNotFound is returned for unknown attachments
var ErrAttachmentNotFound = shared.NewDomainError(shared.CodeNotFound, "Attachment not found")

// RegisterAttachmentInput describes a file about to be uploaded
type RegisterAttachmentInput struct {
	FileName    string
	ContentType string
	SizeBytes   int64
}

// CollaborationService handles comments, attachments and assignment.
// These change no status but are audited like every other RMA mutation.
type CollaborationService struct {
	lifecycle     *LifecycleService
	reader        rma.Reader
	attachments   attachment.Repository
	storage       attachment.ObjectStorage
	presignExpiry time.Duration
	logger        *zap.Logger
}

// NewCollaborationService creates a new CollaborationService
func NewCollaborationService(
	lifecycle *LifecycleService,
	reader rma.Reader,
	attachments attachment.Repository,
	storage attachment.ObjectStorage,
	presignExpiry time.Duration,
	logger *zap.Logger,
) *CollaborationService {
	if presignExpiry <= 0 {
		presignExpiry = defaultPresignExpiry
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CollaborationService{
		lifecycle:     lifecycle,
		reader:        reader,
		attachments:   attachments,
		storage:       storage,
		presignExpiry: presignExpiry,
		logger:        logger,
	}
}

// AddComment appends a comment to the RMA's audit trail
func (s *CollaborationService) AddComment(ctx context.Context, actor identity.Actor, id uuid.UUID, body string) (*rma.RMA, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Comment body is required")
	}
	if len(body) > MaxCommentLength {
		return nil, shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("Comment cannot exceed %d characters", MaxCommentLength))
	}

	return s.lifecycle.mutate(ctx, "add_comment", id, actor, func(ctx context.Context, tx TransactionalRepositories, r *rma.RMA, now time.Time) error {
		return record(ctx, tx, actor, audit.Entry{
			RMAID:    &r.ID,
			Action:   audit.ActionCommentAdded,
			NewValue: map[string]any{"body": body},
		})
	})
}

// RegisterAttachment records attachment metadata and returns a presigned
// upload URL for the file body
func (s *CollaborationService) RegisterAttachment(ctx context.Context, actor identity.Actor, id uuid.UUID, input RegisterAttachmentInput) (*AttachmentResponse, error) {
	var created *attachment.Attachment
	_, err := s.lifecycle.mutate(ctx, "register_attachment", id, actor, func(ctx context.Context, tx TransactionalRepositories, r *rma.RMA, now time.Time) error {
		a, err := attachment.New(r.ID, input.FileName, input.ContentType, input.SizeBytes, actor.ID, now)
		if err != nil {
			return err
		}
		if err := tx.Attachments().Create(ctx, a); err != nil {
			return err
		}
		created = a
		return record(ctx, tx, actor, audit.Entry{
			RMAID:  &r.ID,
			Action: audit.ActionAttachmentAdded,
			NewValue: map[string]any{
				"attachmentId": a.ID.String(),
				"fileName":     a.FileName,
				"contentType":  a.ContentType,
				"sizeBytes":    a.SizeBytes,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, created.StorageKey, created.ContentType, s.presignExpiry)
	if err != nil {
		s.logger.Error("Failed to presign attachment upload",
			zap.String("rma_id", id.String()),
			zap.String("attachment_id", created.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	resp := ToAttachmentResponse(created)
	resp.URL = url
	resp.URLExpiresAt = &expiresAt
	return &resp, nil
}

// ListAttachments returns the attachment metadata of an RMA visible to actor
func (s *CollaborationService) ListAttachments(ctx context.Context, actor identity.Actor, id uuid.UUID) ([]AttachmentResponse, error) {
	if err := s.checkVisible(ctx, actor, id); err != nil {
		return nil, err
	}
	items, err := s.attachments.FindByRMA(ctx, id)
	if err != nil {
		return nil, err
	}
	result := make([]AttachmentResponse, len(items))
	for i := range items {
		result[i] = ToAttachmentResponse(&items[i])
	}
	return result, nil
}

// AttachmentDownloadURL returns a presigned download URL for an attachment
func (s *CollaborationService) AttachmentDownloadURL(ctx context.Context, actor identity.Actor, id, attachmentID uuid.UUID) (*AttachmentResponse, error) {
	if err := s.checkVisible(ctx, actor, id); err != nil {
		return nil, err
	}
	a, err := s.attachments.FindByID(ctx, id, attachmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAttachmentNotFound
	}

	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, a.StorageKey, s.presignExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign download: %w", err)
	}
	resp := ToAttachmentResponse(a)
	resp.URL = url
	resp.URLExpiresAt = &expiresAt
	return &resp, nil
}

// Assign sets or clears the agent working an RMA. Terminal RMAs cannot be reassigned.
func (s *CollaborationService) Assign(ctx context.Context, actor identity.Actor, id uuid.UUID, assigneeID *uuid.UUID) (*rma.RMA, error) {
	return s.lifecycle.mutate(ctx, "assign", id, actor, func(ctx context.Context, tx TransactionalRepositories, r *rma.RMA, now time.Time) error {
		if r.Status.IsTerminal() {
			return shared.NewPreconditionError(rma.ReasonStatusNotAllowed,
				fmt.Sprintf("Cannot assign an RMA in terminal status %s", r.Status))
		}

		patch := rma.Patch{AssignedToID: assigneeID, ClearAssignee: assigneeID == nil}
		if err := tx.RMAs().UpdateRMA(ctx, r.ID, patch, now); err != nil {
			return err
		}
		return record(ctx, tx, actor, audit.Entry{
			RMAID:    &r.ID,
			Action:   audit.ActionAssignmentChanged,
			OldValue: map[string]any{"assignedToId": uuidString(r.AssignedToID)},
			NewValue: map[string]any{"assignedToId": uuidString(assigneeID)},
		})
	})
}

func (s *CollaborationService) checkVisible(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	r, err := s.reader.FindByIDBranchScoped(ctx, actor, id)
	if err != nil {
		return err
	}
	if r == nil {
		return rma.ErrRMANotFound
	}
	return nil
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

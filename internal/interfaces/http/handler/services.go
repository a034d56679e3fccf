package handler

import (
	"context"

	"github.com/google/uuid"
	identityapp "github.com/rms/backend/internal/application/identity"
	rmaapp "github.com/rms/backend/internal/application/rma"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/domain/rma"
	"github.com/rms/backend/internal/domain/shared"
)

// RMALifecycle drives RMA status and line changes
type RMALifecycle interface {
	CreateDraft(ctx context.Context, actor identity.Actor, input rmaapp.CreateDraftInput) (*rma.RMA, error)
	Submit(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error)
	Resubmit(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error)
	PlaceInfoRequired(ctx context.Context, actor identity.Actor, id uuid.UUID, note string) (*rma.RMA, error)
	Approve(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error)
	Reject(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*rma.RMA, error)
	Cancel(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*rma.RMA, error)
	Contest(ctx context.Context, actor identity.Actor, id uuid.UUID, disputeReason string) (*rma.RMA, error)
	Overturn(ctx context.Context, actor identity.Actor, id uuid.UUID, note string) (*rma.RMA, error)
	Uphold(ctx context.Context, actor identity.Actor, id uuid.UUID, note string) (*rma.RMA, error)
	AddLine(ctx context.Context, actor identity.Actor, id uuid.UUID, input rmaapp.LineInput) (*rma.RMA, error)
	UpdateLine(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID, input rmaapp.UpdateLineInput) (*rma.RMA, error)
	RemoveLine(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID) (*rma.RMA, error)
	SplitLine(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID, splits []rmaapp.SplitInput) (*rma.RMA, error)
	RecordReceipt(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID, receivedQty int) (*rma.RMA, error)
	RecordQCInspection(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID, input rmaapp.QCInspectionInput) (*rma.RMA, error)
	CompleteQC(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error)
	ApproveLineCredit(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID) (*rma.RMA, error)
	Resolve(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error)
	Close(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error)
}

// RMAQueries serves the branch-scoped read side
type RMAQueries interface {
	Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rmaapp.RMAResponse, error)
	List(ctx context.Context, actor identity.Actor, filter rma.ListFilter) (shared.Paginated[rmaapp.RMAListItemResponse], error)
	ApprovalQueue(ctx context.Context, actor identity.Actor, filter rma.QueueFilter) (shared.Paginated[rmaapp.RMAListItemResponse], error)
	CreditApprovalQueue(ctx context.Context, actor identity.Actor, filter rma.QueueFilter) (shared.Paginated[rmaapp.CreditApprovalLineResponse], error)
	AuditTrail(ctx context.Context, actor identity.Actor, id uuid.UUID) ([]rmaapp.AuditEventResponse, error)
}

// RMACollaboration handles comments, attachments and assignment
type RMACollaboration interface {
	AddComment(ctx context.Context, actor identity.Actor, id uuid.UUID, body string) (*rma.RMA, error)
	RegisterAttachment(ctx context.Context, actor identity.Actor, id uuid.UUID, input rmaapp.RegisterAttachmentInput) (*rmaapp.AttachmentResponse, error)
	ListAttachments(ctx context.Context, actor identity.Actor, id uuid.UUID) ([]rmaapp.AttachmentResponse, error)
	AttachmentDownloadURL(ctx context.Context, actor identity.Actor, id, attachmentID uuid.UUID) (*rmaapp.AttachmentResponse, error)
	Assign(ctx context.Context, actor identity.Actor, id uuid.UUID, assigneeID *uuid.UUID) (*rma.RMA, error)
}

// UserAdministration provisions RMS users and their branch roles
type UserAdministration interface {
	ProvisionUser(ctx context.Context, actor identity.Actor, input identityapp.ProvisionUserInput) (*identityapp.UserResponse, error)
	AssignBranchRole(ctx context.Context, actor identity.Actor, userID, branchID uuid.UUID, role identity.Role) (*identityapp.UserResponse, error)
	RevokeBranchRole(ctx context.Context, actor identity.Actor, userID, branchID uuid.UUID) (*identityapp.UserResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*identityapp.UserResponse, error)
	List(ctx context.Context, page shared.Page) (shared.Paginated[identityapp.UserResponse], error)
}

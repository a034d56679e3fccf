package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	identityapp "github.com/rms/backend/internal/application/identity"
	rmaapp "github.com/rms/backend/internal/application/rma"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/domain/rma"
	"github.com/rms/backend/internal/domain/shared"
	"github.com/rms/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type MockLifecycle struct {
	mock.Mock
}

func (m *MockLifecycle) result(args mock.Arguments) (*rma.RMA, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rma.RMA), args.Error(1)
}

func (m *MockLifecycle) CreateDraft(ctx context.Context, actor identity.Actor, input rmaapp.CreateDraftInput) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, input))
}

func (m *MockLifecycle) Submit(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id))
}

func (m *MockLifecycle) Resubmit(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id))
}

func (m *MockLifecycle) PlaceInfoRequired(ctx context.Context, actor identity.Actor, id uuid.UUID, note string) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id, note))
}

func (m *MockLifecycle) Approve(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id))
}

func (m *MockLifecycle) Reject(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id, reason))
}

func (m *MockLifecycle) Cancel(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id, reason))
}

func (m *MockLifecycle) Contest(ctx context.Context, actor identity.Actor, id uuid.UUID, disputeReason string) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id, disputeReason))
}

func (m *MockLifecycle) Overturn(ctx context.Context, actor identity.Actor, id uuid.UUID, note string) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id, note))
}

func (m *MockLifecycle) Uphold(ctx context.Context, actor identity.Actor, id uuid.UUID, note string) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id, note))
}

func (m *MockLifecycle) AddLine(ctx context.Context, actor identity.Actor, id uuid.UUID, input rmaapp.LineInput) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id, input))
}

func (m *MockLifecycle) UpdateLine(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID, input rmaapp.UpdateLineInput) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id, lineID, input))
}

func (m *MockLifecycle) RemoveLine(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id, lineID))
}

func (m *MockLifecycle) SplitLine(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID, splits []rmaapp.SplitInput) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id, lineID, splits))
}

func (m *MockLifecycle) RecordReceipt(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID, receivedQty int) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id, lineID, receivedQty))
}

func (m *MockLifecycle) RecordQCInspection(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID, input rmaapp.QCInspectionInput) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id, lineID, input))
}

func (m *MockLifecycle) CompleteQC(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id))
}

func (m *MockLifecycle) ApproveLineCredit(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id, lineID))
}

func (m *MockLifecycle) Resolve(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id))
}

func (m *MockLifecycle) Close(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error) {
	return m.result(m.Called(ctx, actor, id))
}

type MockQueries struct {
	mock.Mock
}

func (m *MockQueries) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rmaapp.RMAResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rmaapp.RMAResponse), args.Error(1)
}

func (m *MockQueries) List(ctx context.Context, actor identity.Actor, filter rma.ListFilter) (shared.Paginated[rmaapp.RMAListItemResponse], error) {
	args := m.Called(ctx, actor, filter)
	return args.Get(0).(shared.Paginated[rmaapp.RMAListItemResponse]), args.Error(1)
}

func (m *MockQueries) ApprovalQueue(ctx context.Context, actor identity.Actor, filter rma.QueueFilter) (shared.Paginated[rmaapp.RMAListItemResponse], error) {
	args := m.Called(ctx, actor, filter)
	return args.Get(0).(shared.Paginated[rmaapp.RMAListItemResponse]), args.Error(1)
}

func (m *MockQueries) CreditApprovalQueue(ctx context.Context, actor identity.Actor, filter rma.QueueFilter) (shared.Paginated[rmaapp.CreditApprovalLineResponse], error) {
	args := m.Called(ctx, actor, filter)
	return args.Get(0).(shared.Paginated[rmaapp.CreditApprovalLineResponse]), args.Error(1)
}

func (m *MockQueries) AuditTrail(ctx context.Context, actor identity.Actor, id uuid.UUID) ([]rmaapp.AuditEventResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]rmaapp.AuditEventResponse), args.Error(1)
}

type MockCollaboration struct {
	mock.Mock
}

func (m *MockCollaboration) AddComment(ctx context.Context, actor identity.Actor, id uuid.UUID, body string) (*rma.RMA, error) {
	args := m.Called(ctx, actor, id, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rma.RMA), args.Error(1)
}

func (m *MockCollaboration) RegisterAttachment(ctx context.Context, actor identity.Actor, id uuid.UUID, input rmaapp.RegisterAttachmentInput) (*rmaapp.AttachmentResponse, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rmaapp.AttachmentResponse), args.Error(1)
}

func (m *MockCollaboration) ListAttachments(ctx context.Context, actor identity.Actor, id uuid.UUID) ([]rmaapp.AttachmentResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]rmaapp.AttachmentResponse), args.Error(1)
}

func (m *MockCollaboration) AttachmentDownloadURL(ctx context.Context, actor identity.Actor, id, attachmentID uuid.UUID) (*rmaapp.AttachmentResponse, error) {
	args := m.Called(ctx, actor, id, attachmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rmaapp.AttachmentResponse), args.Error(1)
}

func (m *MockCollaboration) Assign(ctx context.Context, actor identity.Actor, id uuid.UUID, assigneeID *uuid.UUID) (*rma.RMA, error) {
	args := m.Called(ctx, actor, id, assigneeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rma.RMA), args.Error(1)
}

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) userResult(args mock.Arguments) (*identityapp.UserResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.UserResponse), args.Error(1)
}

func (m *MockUsers) ProvisionUser(ctx context.Context, actor identity.Actor, input identityapp.ProvisionUserInput) (*identityapp.UserResponse, error) {
	return m.userResult(m.Called(ctx, actor, input))
}

func (m *MockUsers) AssignBranchRole(ctx context.Context, actor identity.Actor, userID, branchID uuid.UUID, role identity.Role) (*identityapp.UserResponse, error) {
	return m.userResult(m.Called(ctx, actor, userID, branchID, role))
}

func (m *MockUsers) RevokeBranchRole(ctx context.Context, actor identity.Actor, userID, branchID uuid.UUID) (*identityapp.UserResponse, error) {
	return m.userResult(m.Called(ctx, actor, userID, branchID))
}

func (m *MockUsers) Get(ctx context.Context, id uuid.UUID) (*identityapp.UserResponse, error) {
	return m.userResult(m.Called(ctx, id))
}

func (m *MockUsers) List(ctx context.Context, page shared.Page) (shared.Paginated[identityapp.UserResponse], error) {
	args := m.Called(ctx, page)
	return args.Get(0).(shared.Paginated[identityapp.UserResponse]), args.Error(1)
}

// testActor is the caller injected into every test router
var testActor = identity.Actor{
	ID:           uuid.MustParse("11111111-1111-1111-1111-111111111111"),
	PortalUserID: "portal-agent",
	Role:         identity.RoleReturnsAgent,
	BranchIDs:    []uuid.UUID{uuid.MustParse("22222222-2222-2222-2222-222222222222")},
}

// newTestRouter returns an engine with request IDs and testActor in place
func newTestRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), func(c *gin.Context) {
		c.Set(middleware.ActorKey, testActor)
		c.Next()
	})
	return r
}

func sampleRMA(status rma.Status) *rma.RMA {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	id := uuid.New()
	return &rma.RMA{
		BaseEntity: shared.BaseEntity{ID: id, CreatedAt: now, UpdatedAt: now},
		RMANumber:  "RMA-202603-000001",
		BranchID:   testActor.BranchIDs[0],
		Status:     status,
		Lines: []rma.Line{{
			ID:         uuid.New(),
			RMAID:      id,
			LineNumber: 1,
			PartNumber: "PN-1",
			OrderedQty: 4,
			ReasonCode: "DAMAGED",
			CreatedAt:  now,
			UpdatedAt:  now,
		}},
	}
}

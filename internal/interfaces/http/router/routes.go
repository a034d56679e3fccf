package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/interfaces/http/handler"
	"github.com/rms/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the HTTP handlers mounted under the API prefix
type Handlers struct {
	RMA           *handler.RMAHandler
	Line          *handler.LineHandler
	Approval      *handler.ApprovalHandler
	Finance       *handler.FinanceHandler
	Collaboration *handler.CollaborationHandler
	User          *handler.UserHandler
	System        *handler.SystemHandler
}

// staffRoles may read RMAs of their branches
var staffRoles = []identity.Role{
	identity.RoleReturnsAgent,
	identity.RoleBranchManager,
	identity.RoleFinance,
	identity.RoleQC,
	identity.RoleWarehouse,
}

// RMSGroups builds the RMS route groups. authn authenticates the caller and
// resolves the RMS actor; it is applied to every group except system.
func RMSGroups(h Handlers, authn ...gin.HandlerFunc) []*DomainGroup {
	roles := middleware.RequireRoles

	rmas := NewDomainGroup("rmas", "/rmas").Use(authn...)
	rmas.POST("", roles(identity.RoleReturnsAgent), h.RMA.Create).
		GET("", roles(staffRoles...), h.RMA.List).
		GET("/:id", roles(staffRoles...), h.RMA.Get).
		GET("/:id/audit", roles(staffRoles...), h.RMA.AuditTrail).
		POST("/:id/submit", roles(identity.RoleReturnsAgent, identity.RoleCustomer), h.RMA.Submit).
		POST("/:id/resubmit", roles(identity.RoleReturnsAgent, identity.RoleCustomer), h.RMA.Resubmit).
		POST("/:id/info-required", roles(identity.RoleReturnsAgent), h.RMA.PlaceInfoRequired).
		POST("/:id/cancel", roles(identity.RoleReturnsAgent), h.RMA.Cancel).
		POST("/:id/contest", roles(identity.RoleCustomer), h.RMA.Contest).
		POST("/:id/overturn", roles(identity.RoleBranchManager), h.RMA.Overturn).
		POST("/:id/uphold", roles(identity.RoleBranchManager), h.RMA.Uphold).
		POST("/:id/complete-qc", roles(identity.RoleQC), h.RMA.CompleteQC).
		POST("/:id/resolve", roles(identity.RoleReturnsAgent, identity.RoleFinance), h.RMA.Resolve).
		POST("/:id/close", roles(identity.RoleReturnsAgent), h.RMA.Close).
		POST("/:id/comments", h.Collaboration.AddComment).
		POST("/:id/attachments", h.Collaboration.RegisterAttachment).
		GET("/:id/attachments", h.Collaboration.ListAttachments).
		GET("/:id/attachments/:attachmentId/download", h.Collaboration.DownloadAttachment).
		PUT("/:id/assignee", roles(identity.RoleBranchManager), h.Collaboration.Assign)

	rmas.Group("lines", "/:id/lines").
		POST("", roles(identity.RoleReturnsAgent), h.Line.AddLine).
		PATCH("/:lineId", roles(identity.RoleReturnsAgent), h.Line.UpdateLine).
		DELETE("/:lineId", roles(identity.RoleReturnsAgent), h.Line.RemoveLine).
		POST("/:lineId/split", roles(identity.RoleReturnsAgent), h.Line.SplitLine).
		POST("/:lineId/receive", roles(identity.RoleWarehouse), h.Line.RecordReceipt).
		POST("/:lineId/qc-inspection", roles(identity.RoleQC), h.Line.RecordQCInspection).
		POST("/:lineId/approve-credit", roles(identity.RoleFinance), h.Line.ApproveCredit)

	approvals := NewDomainGroup("approvals", "/approvals").
		Use(authn...).
		Use(roles(identity.RoleBranchManager)).
		GET("/queue", h.Approval.Queue).
		POST("/:id/approve", h.Approval.Approve).
		POST("/:id/reject", h.Approval.Reject)

	finance := NewDomainGroup("finance", "/finance").
		Use(authn...).
		Use(roles(identity.RoleFinance)).
		GET("/credit-approvals", h.Finance.CreditApprovals)

	me := NewDomainGroup("me", "/me").
		Use(authn...).
		GET("", h.User.Me)

	admin := NewDomainGroup("admin", "/admin").
		Use(authn...).
		Use(middleware.RequireAdmin())
	admin.Group("users", "/users").
		POST("", h.User.Provision).
		GET("", h.User.List).
		GET("/:id", h.User.Get).
		PUT("/:id/branches/:branchId", h.User.AssignBranchRole).
		DELETE("/:id/branches/:branchId", h.User.RevokeBranchRole)

	system := NewDomainGroup("system", "/system").
		GET("/ping", h.System.Ping).
		GET("/info", h.System.GetSystemInfo)

	return []*DomainGroup{rmas, approvals, finance, me, admin, system}
}

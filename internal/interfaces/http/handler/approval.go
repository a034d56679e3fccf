package handler

import (
	"github.com/gin-gonic/gin"
	rmaapp "github.com/rms/backend/internal/application/rma"
	"github.com/rms/backend/internal/domain/rma"
	"github.com/rms/backend/internal/domain/shared"
)

// ApprovalHandler serves the branch manager approval queue and decisions
type ApprovalHandler struct {
	BaseHandler
	lifecycle RMALifecycle
	queries   RMAQueries
}

// NewApprovalHandler creates a new ApprovalHandler
func NewApprovalHandler(lifecycle RMALifecycle, queries RMAQueries) *ApprovalHandler {
	return &ApprovalHandler{
		lifecycle: lifecycle,
		queries:   queries,
	}
}

// ListQuery holds the filters shared by RMA listings and work queues
type ListQuery struct {
	Status   string `form:"status" binding:"omitempty"`
	BranchID string `form:"branch_id" binding:"omitempty,uuid"`
	Take     int    `form:"take" binding:"omitempty,min=1,max=100"`
	Skip     int    `form:"skip" binding:"omitempty,min=0"`
}

// listFilter binds ListQuery, answering 400 on bad input
func (h *BaseHandler) listFilter(c *gin.Context) (rma.QueueFilter, bool) {
	var query ListQuery
	if !h.bindQuery(c, &query) {
		return rma.QueueFilter{}, false
	}
	filter := rma.QueueFilter{Page: shared.Page{Take: query.Take, Skip: query.Skip}}
	if query.Status != "" {
		status := rma.Status(query.Status)
		if !status.IsValid() {
			h.BadRequest(c, "Unknown status "+query.Status)
			return filter, false
		}
		filter.Status = &status
	}
	branchID, err := parseOptionalUUID(query.BranchID)
	if err != nil {
		h.BadRequest(c, "Invalid branch ID")
		return filter, false
	}
	filter.BranchID = branchID
	return filter, true
}

// Queue godoc
//
//	@ID				getApprovalQueue
//	@Summary		Approval queue
//	@Description	SUBMITTED and CONTESTED RMAs awaiting a decision, oldest first
//	@Tags			approvals
//	@Produce		json
//	@Param			status		query		string	false	"SUBMITTED or CONTESTED"
//	@Param			branch_id	query		string	false	"Branch override"	format(uuid)
//	@Param			take		query		int		false	"Page size"
//	@Param			skip		query		int		false	"Offset"
//	@Success		200			{object}	APIResponse[[]rmaapp.RMAListItemResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/approvals/queue [get]
func (h *ApprovalHandler) Queue(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	page, err := h.queries.ApprovalQueue(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Approve godoc
//
//	@ID				approveRMA
//	@Summary		Approve an RMA
//	@Description	SUBMITTED to APPROVED
//	@Tags			approvals
//	@Produce		json
//	@Param			id	path		string	true	"RMA ID"	format(uuid)
//	@Success		200	{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/approvals/{id}/approve [post]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id", "RMA ID")
	if !ok {
		return
	}

	updated, err := h.lifecycle.Approve(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rmaapp.ToRMAResponse(updated))
}

// Reject godoc
//
//	@ID				rejectRMA
//	@Summary		Reject an RMA
//	@Description	SUBMITTED to REJECTED with a mandatory reason
//	@Tags			approvals
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"RMA ID"	format(uuid)
//	@Param			request	body		ReasonRequest	true	"Rejection reason"
//	@Success		200		{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/approvals/{id}/reject [post]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id", "RMA ID")
	if !ok {
		return
	}
	var req ReasonRequest
	if !h.bindJSON(c, &req) {
		return
	}

	updated, err := h.lifecycle.Reject(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rmaapp.ToRMAResponse(updated))
}

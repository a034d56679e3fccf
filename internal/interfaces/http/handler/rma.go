package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	rmaapp "github.com/rms/backend/internal/application/rma"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/domain/rma"
)

// RMAHandler handles RMA header endpoints: creation, reads and status changes
type RMAHandler struct {
	BaseHandler
	lifecycle RMALifecycle
	queries   RMAQueries
}

// NewRMAHandler creates a new RMAHandler
func NewRMAHandler(lifecycle RMALifecycle, queries RMAQueries) *RMAHandler {
	return &RMAHandler{
		lifecycle: lifecycle,
		queries:   queries,
	}
}

// Create godoc
//
//	@ID				createRMA
//	@Summary		Create a draft RMA
//	@Description	Open a new RMA in DRAFT with an optional initial set of lines
//	@Tags			rmas
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateRMARequest	true	"Draft RMA"
//	@Success		201		{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas [post]
func (h *RMAHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateRMARequest
	if !h.bindJSON(c, &req) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.BadRequest(c, "Invalid identifier")
		return
	}

	created, err := h.lifecycle.CreateDraft(c.Request.Context(), actor, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rmaapp.ToRMAResponse(created))
}

// List godoc
//
//	@ID				listRMAs
//	@Summary		List RMAs
//	@Description	List the RMAs visible to the caller, newest first
//	@Tags			rmas
//	@Produce		json
//	@Param			status		query		string	false	"Status filter"	Enums(DRAFT, SUBMITTED, INFO_REQUIRED, APPROVED, REJECTED, CONTESTED, CANCELLED, RECEIVED, QC_COMPLETE, RESOLVED, CLOSED)
//	@Param			branch_id	query		string	false	"Branch override"	format(uuid)
//	@Param			take		query		int		false	"Page size"	minimum(1)	maximum(100)
//	@Param			skip		query		int		false	"Offset"	minimum(0)
//	@Success		200			{object}	APIResponse[[]rmaapp.RMAListItemResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		403			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas [get]
func (h *RMAHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	page, err := h.queries.List(c.Request.Context(), actor, rma.ListFilter(filter))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Get godoc
//
//	@ID				getRMA
//	@Summary		Get an RMA
//	@Description	Retrieve an RMA with its lines and legal next states
//	@Tags			rmas
//	@Produce		json
//	@Param			id	path		string	true	"RMA ID"	format(uuid)
//	@Success		200	{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id} [get]
func (h *RMAHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id", "RMA ID")
	if !ok {
		return
	}

	resp, err := h.queries.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AuditTrail godoc
//
//	@ID				getRMAAuditTrail
//	@Summary		Get the audit trail of an RMA
//	@Description	Chronological audit events of a visible RMA
//	@Tags			rmas
//	@Produce		json
//	@Param			id	path		string	true	"RMA ID"	format(uuid)
//	@Success		200	{object}	APIResponse[[]rmaapp.AuditEventResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/audit [get]
func (h *RMAHandler) AuditTrail(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id", "RMA ID")
	if !ok {
		return
	}

	events, err := h.queries.AuditTrail(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, events)
}

// transition runs a body-less lifecycle operation on the RMA in the path
func (h *RMAHandler) transition(c *gin.Context, op func(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id", "RMA ID")
	if !ok {
		return
	}

	updated, err := op(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rmaapp.ToRMAResponse(updated))
}

// transitionWithText runs a lifecycle operation taking one mandatory text field
func (h *RMAHandler) transitionWithText(c *gin.Context, text func(*gin.Context) (string, bool),
	op func(ctx context.Context, actor identity.Actor, id uuid.UUID, text string) (*rma.RMA, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id", "RMA ID")
	if !ok {
		return
	}
	value, ok := text(c)
	if !ok {
		return
	}

	updated, err := op(c.Request.Context(), actor, id, value)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rmaapp.ToRMAResponse(updated))
}

func (h *RMAHandler) reason(c *gin.Context) (string, bool) {
	var req ReasonRequest
	if !h.bindJSON(c, &req) {
		return "", false
	}
	return req.Reason, true
}

func (h *RMAHandler) note(c *gin.Context) (string, bool) {
	var req NoteRequest
	if !h.bindJSON(c, &req) {
		return "", false
	}
	return req.Note, true
}

// Submit godoc
//
//	@ID				submitRMA
//	@Summary		Submit an RMA
//	@Description	DRAFT or INFO_REQUIRED to SUBMITTED; requires at least one line
//	@Tags			rmas
//	@Produce		json
//	@Param			id	path		string	true	"RMA ID"	format(uuid)
//	@Success		200	{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/submit [post]
func (h *RMAHandler) Submit(c *gin.Context) {
	h.transition(c, h.lifecycle.Submit)
}

// Resubmit godoc
//
//	@ID				resubmitRMA
//	@Summary		Resubmit an RMA
//	@Description	INFO_REQUIRED to SUBMITTED after the requested information was supplied
//	@Tags			rmas
//	@Produce		json
//	@Param			id	path		string	true	"RMA ID"	format(uuid)
//	@Success		200	{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/resubmit [post]
func (h *RMAHandler) Resubmit(c *gin.Context) {
	h.transition(c, h.lifecycle.Resubmit)
}

// PlaceInfoRequired godoc
//
//	@ID				placeRMAInfoRequired
//	@Summary		Request more information
//	@Description	SUBMITTED to INFO_REQUIRED with a mandatory note
//	@Tags			rmas
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"RMA ID"	format(uuid)
//	@Param			request	body		NoteRequest	true	"Note to the requester"
//	@Success		200		{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/info-required [post]
func (h *RMAHandler) PlaceInfoRequired(c *gin.Context) {
	h.transitionWithText(c, h.note, h.lifecycle.PlaceInfoRequired)
}

// Cancel godoc
//
//	@ID				cancelRMA
//	@Summary		Cancel an RMA
//	@Description	Cancel a pre-receipt RMA with a mandatory reason
//	@Tags			rmas
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"RMA ID"	format(uuid)
//	@Param			request	body		ReasonRequest	true	"Cancellation reason"
//	@Success		200		{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/cancel [post]
func (h *RMAHandler) Cancel(c *gin.Context) {
	h.transitionWithText(c, h.reason, h.lifecycle.Cancel)
}

// Contest godoc
//
//	@ID				contestRMA
//	@Summary		Contest a rejection
//	@Description	REJECTED to CONTESTED, once per RMA, with a dispute reason
//	@Tags			rmas
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"RMA ID"	format(uuid)
//	@Param			request	body		ReasonRequest	true	"Dispute reason"
//	@Success		200		{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/contest [post]
func (h *RMAHandler) Contest(c *gin.Context) {
	h.transitionWithText(c, h.reason, h.lifecycle.Contest)
}

// Overturn godoc
//
//	@ID				overturnRMA
//	@Summary		Overturn a contested rejection
//	@Description	CONTESTED to APPROVED with a resolution note
//	@Tags			rmas
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"RMA ID"	format(uuid)
//	@Param			request	body		NoteRequest	true	"Resolution note"
//	@Success		200		{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/overturn [post]
func (h *RMAHandler) Overturn(c *gin.Context) {
	h.transitionWithText(c, h.note, h.lifecycle.Overturn)
}

// Uphold godoc
//
//	@ID				upholdRMA
//	@Summary		Uphold a contested rejection
//	@Description	CONTESTED to CLOSED with a resolution note
//	@Tags			rmas
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"RMA ID"	format(uuid)
//	@Param			request	body		NoteRequest	true	"Resolution note"
//	@Success		200		{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/uphold [post]
func (h *RMAHandler) Uphold(c *gin.Context) {
	h.transitionWithText(c, h.note, h.lifecycle.Uphold)
}

// CompleteQC godoc
//
//	@ID				completeRMAQC
//	@Summary		Complete QC
//	@Description	RECEIVED to QC_COMPLETE
//	@Tags			rmas
//	@Produce		json
//	@Param			id	path		string	true	"RMA ID"	format(uuid)
//	@Success		200	{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/complete-qc [post]
func (h *RMAHandler) CompleteQC(c *gin.Context) {
	h.transition(c, h.lifecycle.CompleteQC)
}

// Resolve godoc
//
//	@ID				resolveRMA
//	@Summary		Resolve an RMA
//	@Description	QC_COMPLETE to RESOLVED once every CREDIT line is finance approved; triggers fulfillment
//	@Tags			rmas
//	@Produce		json
//	@Param			id	path		string	true	"RMA ID"	format(uuid)
//	@Success		200	{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/resolve [post]
func (h *RMAHandler) Resolve(c *gin.Context) {
	h.transition(c, h.lifecycle.Resolve)
}

// Close godoc
//
//	@ID				closeRMA
//	@Summary		Close an RMA
//	@Description	RESOLVED to CLOSED
//	@Tags			rmas
//	@Produce		json
//	@Param			id	path		string	true	"RMA ID"	format(uuid)
//	@Success		200	{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/close [post]
func (h *RMAHandler) Close(c *gin.Context) {
	h.transition(c, h.lifecycle.Close)
}

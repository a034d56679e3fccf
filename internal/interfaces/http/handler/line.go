package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	rmaapp "github.com/rms/backend/internal/application/rma"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/domain/rma"
)

// LineHandler handles RMA line endpoints: editing, receipt, QC and credit approval
type LineHandler struct {
	BaseHandler
	lifecycle RMALifecycle
}

// NewLineHandler creates a new LineHandler
func NewLineHandler(lifecycle RMALifecycle) *LineHandler {
	return &LineHandler{lifecycle: lifecycle}
}

// lineOp resolves the actor and both path IDs, runs op and answers with the RMA
func (h *LineHandler) lineOp(c *gin.Context, op func(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID) (*rma.RMA, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id", "RMA ID")
	if !ok {
		return
	}
	lineID, ok := h.uuidParam(c, "lineId", "line ID")
	if !ok {
		return
	}

	updated, err := op(c.Request.Context(), actor, id, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rmaapp.ToRMAResponse(updated))
}

// AddLine godoc
//
//	@ID				addRMALine
//	@Summary		Add a line
//	@Description	Append a line to an RMA in DRAFT or INFO_REQUIRED
//	@Tags			rma-lines
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"RMA ID"	format(uuid)
//	@Param			request	body		LineRequest	true	"Line"
//	@Success		201		{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/lines [post]
func (h *LineHandler) AddLine(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id", "RMA ID")
	if !ok {
		return
	}
	var req LineRequest
	if !h.bindJSON(c, &req) {
		return
	}

	updated, err := h.lifecycle.AddLine(c.Request.Context(), actor, id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rmaapp.ToRMAResponse(updated))
}

// UpdateLine godoc
//
//	@ID				updateRMALine
//	@Summary		Update a line
//	@Description	Partially update an editable line; a null disposition clears it
//	@Tags			rma-lines
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"RMA ID"	format(uuid)
//	@Param			lineId	path		string				true	"Line ID"	format(uuid)
//	@Param			request	body		UpdateLineRequest	true	"Fields to change"
//	@Success		200		{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/lines/{lineId} [patch]
func (h *LineHandler) UpdateLine(c *gin.Context) {
	var req UpdateLineRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.lineOp(c, func(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID) (*rma.RMA, error) {
		return h.lifecycle.UpdateLine(ctx, actor, id, lineID, req.toInput())
	})
}

// RemoveLine godoc
//
//	@ID				removeRMALine
//	@Summary		Remove a line
//	@Description	Delete a line from an RMA in DRAFT or INFO_REQUIRED
//	@Tags			rma-lines
//	@Produce		json
//	@Param			id		path		string	true	"RMA ID"	format(uuid)
//	@Param			lineId	path		string	true	"Line ID"	format(uuid)
//	@Success		200		{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/lines/{lineId} [delete]
func (h *LineHandler) RemoveLine(c *gin.Context) {
	h.lineOp(c, h.lifecycle.RemoveLine)
}

// SplitLine godoc
//
//	@ID				splitRMALine
//	@Summary		Split a line
//	@Description	Replace a line by two or more lines whose quantities sum to the original
//	@Tags			rma-lines
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"RMA ID"	format(uuid)
//	@Param			lineId	path		string				true	"Line ID"	format(uuid)
//	@Param			request	body		SplitLineRequest	true	"Split targets"
//	@Success		200		{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/lines/{lineId}/split [post]
func (h *LineHandler) SplitLine(c *gin.Context) {
	var req SplitLineRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.lineOp(c, func(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID) (*rma.RMA, error) {
		return h.lifecycle.SplitLine(ctx, actor, id, lineID, req.toInput())
	})
}

// RecordReceipt godoc
//
//	@ID				recordRMALineReceipt
//	@Summary		Record a receipt
//	@Description	Record the received quantity of a line; the first receipt moves APPROVED to RECEIVED
//	@Tags			rma-lines
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"RMA ID"	format(uuid)
//	@Param			lineId	path		string			true	"Line ID"	format(uuid)
//	@Param			request	body		ReceiptRequest	true	"Received quantity"
//	@Success		200		{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/lines/{lineId}/receive [post]
func (h *LineHandler) RecordReceipt(c *gin.Context) {
	var req ReceiptRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.lineOp(c, func(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID) (*rma.RMA, error) {
		return h.lifecycle.RecordReceipt(ctx, actor, id, lineID, *req.ReceivedQty)
	})
}

// RecordQCInspection godoc
//
//	@ID				recordRMALineQCInspection
//	@Summary		Record a QC inspection
//	@Description	Record the inspected quantity and findings of a received line
//	@Tags			rma-lines
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"RMA ID"	format(uuid)
//	@Param			lineId	path		string				true	"Line ID"	format(uuid)
//	@Param			request	body		QCInspectionRequest	true	"Inspection outcome"
//	@Success		200		{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/lines/{lineId}/qc-inspection [post]
func (h *LineHandler) RecordQCInspection(c *gin.Context) {
	var req QCInspectionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.lineOp(c, func(ctx context.Context, actor identity.Actor, id, lineID uuid.UUID) (*rma.RMA, error) {
		return h.lifecycle.RecordQCInspection(ctx, actor, id, lineID, req.toInput())
	})
}

// ApproveCredit godoc
//
//	@ID				approveRMALineCredit
//	@Summary		Approve a credit line
//	@Description	Finance sign-off of a CREDIT line on a QC_COMPLETE RMA
//	@Tags			finance
//	@Produce		json
//	@Param			id		path		string	true	"RMA ID"	format(uuid)
//	@Param			lineId	path		string	true	"Line ID"	format(uuid)
//	@Success		200		{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/lines/{lineId}/approve-credit [post]
func (h *LineHandler) ApproveCredit(c *gin.Context) {
	h.lineOp(c, h.lifecycle.ApproveLineCredit)
}

package handler

import (
	"github.com/gin-gonic/gin"
	rmaapp "github.com/rms/backend/internal/application/rma"
)

// CollaborationHandler handles comments, attachments and assignment of an RMA
type CollaborationHandler struct {
	BaseHandler
	collaboration RMACollaboration
}

// NewCollaborationHandler creates a new CollaborationHandler
func NewCollaborationHandler(collaboration RMACollaboration) *CollaborationHandler {
	return &CollaborationHandler{collaboration: collaboration}
}

// AddComment godoc
//
//	@ID				addRMAComment
//	@Summary		Comment on an RMA
//	@Description	Add a comment; comments are read back from the audit trail
//	@Tags			rma-collaboration
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"RMA ID"	format(uuid)
//	@Param			request	body		CommentRequest	true	"Comment"
//	@Success		201		{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/comments [post]
func (h *CollaborationHandler) AddComment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id", "RMA ID")
	if !ok {
		return
	}
	var req CommentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	updated, err := h.collaboration.AddComment(c.Request.Context(), actor, id, req.Body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rmaapp.ToRMAResponse(updated))
}

// RegisterAttachment godoc
//
//	@ID				registerRMAAttachment
//	@Summary		Register an attachment
//	@Description	Create an attachment record and return a presigned upload URL
//	@Tags			rma-collaboration
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"RMA ID"	format(uuid)
//	@Param			request	body		RegisterAttachmentRequest	true	"File metadata"
//	@Success		201		{object}	APIResponse[rmaapp.AttachmentResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/attachments [post]
func (h *CollaborationHandler) RegisterAttachment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id", "RMA ID")
	if !ok {
		return
	}
	var req RegisterAttachmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.collaboration.RegisterAttachment(c.Request.Context(), actor, id, rmaapp.RegisterAttachmentInput{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListAttachments godoc
//
//	@ID				listRMAAttachments
//	@Summary		List attachments
//	@Tags			rma-collaboration
//	@Produce		json
//	@Param			id	path		string	true	"RMA ID"	format(uuid)
//	@Success		200	{object}	APIResponse[[]rmaapp.AttachmentResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/attachments [get]
func (h *CollaborationHandler) ListAttachments(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id", "RMA ID")
	if !ok {
		return
	}

	attachments, err := h.collaboration.ListAttachments(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, attachments)
}

// DownloadAttachment godoc
//
//	@ID				downloadRMAAttachment
//	@Summary		Attachment download URL
//	@Description	Return a presigned download URL for an attachment
//	@Tags			rma-collaboration
//	@Produce		json
//	@Param			id				path		string	true	"RMA ID"		format(uuid)
//	@Param			attachmentId	path		string	true	"Attachment ID"	format(uuid)
//	@Success		200				{object}	APIResponse[rmaapp.AttachmentResponse]
//	@Failure		404				{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/attachments/{attachmentId}/download [get]
func (h *CollaborationHandler) DownloadAttachment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id", "RMA ID")
	if !ok {
		return
	}
	attachmentID, ok := h.uuidParam(c, "attachmentId", "attachment ID")
	if !ok {
		return
	}

	resp, err := h.collaboration.AttachmentDownloadURL(c.Request.Context(), actor, id, attachmentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Assign godoc
//
//	@ID				assignRMA
//	@Summary		Assign an RMA
//	@Description	Set or clear the assignee of a non-terminal RMA
//	@Tags			rma-collaboration
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"RMA ID"	format(uuid)
//	@Param			request	body		AssignRequest	true	"Assignee"
//	@Success		200		{object}	APIResponse[rmaapp.RMAResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/rmas/{id}/assignee [put]
func (h *CollaborationHandler) Assign(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id", "RMA ID")
	if !ok {
		return
	}
	var req AssignRequest
	if !h.bindJSON(c, &req) {
		return
	}
	assignee, err := parseOptionalUUID(deref(req.AssigneeID))
	if err != nil {
		h.BadRequest(c, "Invalid assignee ID")
		return
	}

	updated, err := h.collaboration.Assign(c.Request.Context(), actor, id, assignee)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rmaapp.ToRMAResponse(updated))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

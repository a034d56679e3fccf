package handler

import "github.com/gin-gonic/gin"

// FinanceHandler serves the finance credit approval queue
type FinanceHandler struct {
	BaseHandler
	queries RMAQueries
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(queries RMAQueries) *FinanceHandler {
	return &FinanceHandler{queries: queries}
}

// CreditApprovals godoc
//
//	@ID				getCreditApprovalQueue
//	@Summary		Credit approval queue
//	@Description	Unapproved CREDIT lines on QC_COMPLETE RMAs, oldest RMA first
//	@Tags			finance
//	@Produce		json
//	@Param			branch_id	query		string	false	"Branch override"	format(uuid)
//	@Param			take		query		int		false	"Page size"
//	@Param			skip		query		int		false	"Offset"
//	@Success		200			{object}	APIResponse[[]rmaapp.CreditApprovalLineResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/finance/credit-approvals [get]
func (h *FinanceHandler) CreditApprovals(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	page, err := h.queries.CreditApprovalQueue(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

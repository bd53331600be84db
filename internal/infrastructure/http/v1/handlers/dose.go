package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/id"
	"pharmapos/internal/domain/documents/dose"
	"pharmapos/internal/infrastructure/http/v1/dto"
)

// DoseHandler serves the dose workflow endpoints.
type DoseHandler struct {
	*BaseHandler
	service *dose.Service
}

// NewDoseHandler creates a new dose handler.
func NewDoseHandler(base *BaseHandler, service *dose.Service) *DoseHandler {
	return &DoseHandler{BaseHandler: base, service: service}
}

// RecordPending handles POST /medicines/dose: cash first, medicines later.
func (h *DoseHandler) RecordPending(c *gin.Context) {
	var req dto.PendingCashRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.RecordPendingCash(c.Request.Context(), req.Amount, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p.ID)
}

// ListPending handles GET /medicines/dose/pending.
func (h *DoseHandler) ListPending(c *gin.Context) {
	items, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPendingDoses(items))
}

// Resolve handles POST /medicines/dose/resolve.
func (h *DoseHandler) Resolve(c *gin.Context) {
	var req dto.ResolveDoseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	pendingID, err := id.Parse(req.PendingID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid pending id").WithDetail("pendingId", req.PendingID))
		return
	}

	items, err := dto.ToResolveItems(req.Items)
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Resolve(c.Request.Context(), pendingID, items)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSale(doc))
}

// DispenseQuick handles POST /medicines/dose/quick: medicines and cash in
// one step, no pending phase.
func (h *DoseHandler) DispenseQuick(c *gin.Context) {
	var req dto.DispenseDoseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	items, err := dto.ToResolveItems(req.Items)
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.DispenseDirect(c.Request.Context(), items, req.AmountCollected, req.CustomerName, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSale(doc))
}

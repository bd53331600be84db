package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"pharmapos/internal/core/id"
	"pharmapos/internal/domain/audit"
)

// AuditTrail reads back recorded audit entries.
type AuditTrail interface {
	EntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error)
}

// AuditHandler serves the admin audit trail.
type AuditHandler struct {
	*BaseHandler
	trail AuditTrail
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, trail AuditTrail) *AuditHandler {
	return &AuditHandler{BaseHandler: base, trail: trail}
}

// EntityHistory handles GET /admin/audit/:entityType/:id.
func (h *AuditHandler) EntityHistory(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)
	entries, err := h.trail.EntityHistory(c.Request.Context(), c.Param("entityType"), entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entries)
}

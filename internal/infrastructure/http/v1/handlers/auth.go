package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmapos/internal/domain/auth"
	"pharmapos/internal/infrastructure/http/v1/dto"
)

// AuthHandler serves the shared-secret verification endpoint.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{BaseHandler: base, service: service}
}

// Verify handles POST /admin/verify.
func (h *AuthHandler) Verify(c *gin.Context) {
	var req dto.VerifyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Verify(c.Request.Context(), req.Secret)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

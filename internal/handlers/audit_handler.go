package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "auctus/internal/errors"
	"auctus/internal/pagination"
	"auctus/internal/services"
)

// AuditHandler exposes the authenticated user's activity history.
type AuditHandler struct {
	audit services.AuditServicer
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(audit services.AuditServicer) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// ListActivity returns the authenticated user's recent auth events.
// @Summary     List account activity
// @Description Get the authenticated user's recent authentication events, newest first
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       page_size query int false "Items per page" default(20)
// @Success     200 {object} map[string]interface{} "Paginated activity list"
// @Failure     400 {object} ErrorResponse "Invalid pagination parameters"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /me/activity [get]
func (h *AuditHandler) ListActivity(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid pagination parameters"))
		return
	}

	result, err := h.audit.ListForUser(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

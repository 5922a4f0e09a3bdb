package handlers

import (
	"fittrack/internal/auth"
	"fittrack/internal/models"
	"fittrack/internal/repository"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

const defaultSecurityEventsLimit = 50

type UserHandler struct {
	auditRepo repository.AuditLogRepository
}

func NewUserHandler(auditRepo repository.AuditLogRepository) *UserHandler {
	return &UserHandler{auditRepo: auditRepo}
}

// Me godoc
// @Summary Get the current user
// @Description Returns the profile of the authenticated user
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user := auth.GetUserFromContext(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// SecurityEvents godoc
// @Summary List the current user's security events
// @Description Returns password reset and sign-in activity recorded for the authenticated user, oldest first
// @Tags users
// @Produce json
// @Param action query string false "Only events of this action"
// @Param limit query int false "Page size (1-200, default 50)"
// @Param offset query int false "Entries to skip"
// @Success 200 {object} models.SecurityEventsResponse
// @Failure 400 {object} models.ErrorResponse "Invalid query"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /users/me/security-events [get]
func (h *UserHandler) SecurityEvents(c *gin.Context) {
	user := auth.GetUserFromContext(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	var query models.SecurityEventsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	limit := query.Limit
	if limit == 0 {
		limit = defaultSecurityEventsLimit
	}
	filter := repository.AuditLogFilter{Limit: &limit, Offset: &query.Offset}
	if query.Action != "" {
		filter.Actions = []models.AuditAction{models.AuditAction(query.Action)}
	}

	events, err := h.auditRepo.GetByUserID(c.Request.Context(), user.ID, filter)
	if err != nil {
		log.Printf("Failed to list security events: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list security events"})
		return
	}
	if events == nil {
		events = []models.AuditLog{}
	}

	c.JSON(http.StatusOK, models.SecurityEventsResponse{Events: events})
}

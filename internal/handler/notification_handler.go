package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eone-api/internal/service"
	"github.com/noah-isme/eone-api/pkg/response"
)

// NotificationHandler exposes the per-user notification feed.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Feed godoc
// @Summary Notification feed for a user
// @Tags Notifications
// @Produce json
// @Param id path string true "User ID"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /notifications/{id} [get]
func (h *NotificationHandler) Feed(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	feed, err := h.notifications.Feed(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, feed, nil)
}

// Reset godoc
// @Summary Delete every notification record
// @Tags Notifications
// @Produce json
// @Success 204
// @Router /notifications [delete]
func (h *NotificationHandler) Reset(c *gin.Context) {
	if err := h.notifications.Reset(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

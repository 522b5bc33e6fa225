package handler

import (
	"context"
	"net/http"

	model "voltbay/internal/models"
	"voltbay/services/helpers"
	"voltbay/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=notifications_handler.go -destination=mock_notifications_handler.go -package=handler

type NotificationServiceInterface interface {
	List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}

type NotificationsHandler struct {
	service NotificationServiceInterface
}

func NewNotificationsHandler(service NotificationServiceInterface) *NotificationsHandler {
	return &NotificationsHandler{service: service}
}

// ListHandler handles GET /api/notifications
func (h *NotificationsHandler) ListHandler(c *gin.Context) {
	actor, ok := helpers.MustActor(c)
	if !ok {
		return
	}

	var q helpers.NotificationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		helpers.HandleBindError(c, "ListNotificationsHandler", err)
		return
	}

	items, err := h.service.List(c.Request.Context(), actor.UserID, q.Unread, q.Limit)
	if err != nil {
		helpers.RespondError(c, "ListNotificationsHandler", "error retrieving notifications", err, map[string]any{"user_id": actor.UserID})
		return
	}
	if items == nil {
		items = []model.Notification{}
	}

	utils.JSONResponse(c, http.StatusOK, items, "notifications retrieved successfully")
}

// MarkReadHandler handles POST /api/notifications/:id/read
func (h *NotificationsHandler) MarkReadHandler(c *gin.Context) {
	actor, ok := helpers.MustActor(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := h.service.MarkRead(c.Request.Context(), actor.UserID, id); err != nil {
		helpers.RespondError(c, "MarkReadHandler", "failed to mark notification read", err, map[string]any{
			"user_id":         actor.UserID,
			"notification_id": id,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"id": id, "is_read": true}, "notification marked as read")
}

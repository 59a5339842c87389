package notification

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/domain"
	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/repository/cockroach"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/constants"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/response"
)

// Handler handles notification HTTP requests. This is the retrieval path an
// offline recipient uses to catch up on everything that was persisted while
// they were away.
type Handler struct {
	notifications *cockroach.NotificationRepository
}

// NewHandler creates a new notification handler
func NewHandler(notifications *cockroach.NotificationRepository) *Handler {
	return &Handler{
		notifications: notifications,
	}
}

// GetNotifications retrieves user's notifications
// GET /v1/notifications
func (h *Handler) GetNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit := constants.DefaultPageSize
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= constants.MaxPageSize {
			limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	notifications, totalCount, err := h.notifications.GetByUserID(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(c, "Failed to get notifications")
		return
	}

	unreadCount, err := h.notifications.GetUnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, "Failed to get unread count")
		return
	}

	response.Success(c, http.StatusOK, domain.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unreadCount,
		TotalCount:    totalCount,
		HasMore:       offset+len(notifications) < totalCount,
	})
}

// MarkAsRead marks a notification as read
// POST /v1/notifications/:id/read
func (h *Handler) MarkAsRead(c *gin.Context) {
	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid notification ID")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.notifications.MarkAsRead(c.Request.Context(), notificationID, userID); err != nil {
		response.NotFound(c, "Notification not found")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Notification marked as read",
	})
}

// MarkAllAsRead marks all notifications as read
// POST /v1/notifications/read-all
func (h *Handler) MarkAllAsRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.notifications.MarkAllAsRead(c.Request.Context(), userID); err != nil {
		response.InternalError(c, "Failed to mark all notifications as read")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "All notifications marked as read",
	})
}

// DeleteNotification deletes a notification
// DELETE /v1/notifications/:id
func (h *Handler) DeleteNotification(c *gin.Context) {
	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid notification ID")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), notificationID, userID); err != nil {
		response.NotFound(c, "Notification not found")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Notification deleted",
	})
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, "Not authenticated")
		return uuid.Nil, false
	}

	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		response.InternalError(c, "Invalid user ID")
		return uuid.Nil, false
	}

	return userID, true
}

package call

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/repository/cockroach"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/constants"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/response"
)

// Handler serves call history over REST; the call lifecycle itself runs
// over the WebSocket
type Handler struct {
	calls *cockroach.CallRepository
}

// NewHandler creates a new call handler
func NewHandler(calls *cockroach.CallRepository) *Handler {
	return &Handler{
		calls: calls,
	}
}

// GetCalls retrieves call history for the authenticated user
// GET /v1/calls
func (h *Handler) GetCalls(c *gin.Context) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, "Not authenticated")
		return
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		response.InternalError(c, "Invalid user ID")
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

	calls, err := h.calls.GetUserCalls(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(c, "Failed to get call history")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"calls": calls,
	})
}

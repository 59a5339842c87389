package message

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/domain"
	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/repository/cassandra"
	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/repository/cockroach"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/constants"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/response"
)

// Handler serves message history over REST; live delivery runs over the
// WebSocket fan-out
type Handler struct {
	messages      *cassandra.MessageRepository
	conversations *cockroach.ConversationRepository
}

// NewHandler creates a new message handler
func NewHandler(messages *cassandra.MessageRepository, conversations *cockroach.ConversationRepository) *Handler {
	return &Handler{
		messages:      messages,
		conversations: conversations,
	}
}

// GetMessages retrieves message history for a conversation
// GET /v1/messages?conversation_id=&bucket=&limit=&page_state=
func (h *Handler) GetMessages(c *gin.Context) {
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

	conversationID, err := uuid.Parse(c.Query("conversation_id"))
	if err != nil {
		response.ValidationError(c, "Invalid conversation_id")
		return
	}

	isParticipant, err := h.conversations.IsParticipant(c.Request.Context(), conversationID, userID)
	if err != nil {
		response.InternalError(c, "Failed to verify conversation membership")
		return
	}
	if !isParticipant {
		response.Forbidden(c, "You are not a participant of this conversation")
		return
	}

	limit := constants.DefaultPageSize
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= constants.MaxPageSize {
			limit = l
		}
	}

	// Without an explicit bucket, serve the most recent messages
	if c.Query("bucket") == "" {
		messages, err := h.messages.GetRecentMessages(c.Request.Context(), conversationID, limit)
		if err != nil {
			response.InternalError(c, "Failed to get messages")
			return
		}
		response.Success(c, http.StatusOK, gin.H{
			"messages": messages,
		})
		return
	}

	bucket, err := strconv.Atoi(c.Query("bucket"))
	if err != nil {
		response.ValidationError(c, "Invalid bucket")
		return
	}

	var pageState []byte
	if cursor := c.Query("page_state"); cursor != "" {
		pageState, err = base64.URLEncoding.DecodeString(cursor)
		if err != nil {
			response.ValidationError(c, "Invalid page_state cursor")
			return
		}
	}

	messages, nextPageState, err := h.messages.GetByConversation(c.Request.Context(), conversationID, bucket, limit, pageState)
	if err != nil {
		response.InternalError(c, "Failed to get messages")
		return
	}

	result := gin.H{
		"messages": messages,
	}
	if len(nextPageState) > 0 {
		result["next_page_state"] = base64.URLEncoding.EncodeToString(nextPageState)
	}

	response.Success(c, http.StatusOK, result)
}

// GetConversations retrieves the user's conversations with last-message
// pointers, most recent activity first
// GET /v1/conversations
func (h *Handler) GetConversations(c *gin.Context) {
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

	conversations, err := h.conversations.GetUserConversations(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(c, "Failed to get conversations")
		return
	}
	if conversations == nil {
		conversations = []*domain.Conversation{}
	}

	response.Success(c, http.StatusOK, gin.H{
		"conversations": conversations,
	})
}

package attachment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/service/attachment"
	apperrors "github.com/narendra12543/Matrimony-Web-App-sub000/pkg/errors"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/response"
)

// Handler handles attachment HTTP requests
type Handler struct {
	attachments *attachment.Service
}

// NewHandler creates a new attachment handler
func NewHandler(attachments *attachment.Service) *Handler {
	return &Handler{
		attachments: attachments,
	}
}

type uploadURLRequest struct {
	FileName string `json:"file_name" binding:"required"`
}

// GenerateUploadURL issues a presigned PUT URL for a message attachment
// POST /v1/attachments/upload-url
func (h *Handler) GenerateUploadURL(c *gin.Context) {
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

	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	result, err := h.attachments.GenerateUploadURL(c.Request.Context(), userID, req.FileName)
	if err != nil {
		appErr := apperrors.GetAppError(err)
		response.Error(c, appErr.StatusCode, string(appErr.Code), appErr.Message)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GenerateDownloadURL issues a presigned GET URL for a stored attachment
// GET /v1/attachments/download-url?file_ref=
func (h *Handler) GenerateDownloadURL(c *gin.Context) {
	fileRef := c.Query("file_ref")

	url, err := h.attachments.GenerateDownloadURL(c.Request.Context(), fileRef)
	if err != nil {
		appErr := apperrors.GetAppError(err)
		response.Error(c, appErr.StatusCode, string(appErr.Code), appErr.Message)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"download_url": url,
	})
}

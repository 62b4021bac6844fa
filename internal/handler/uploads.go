package handler

import (
	"net/http"

	"VoiceStudio/internal/generation"
	"VoiceStudio/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type uploadRequest struct {
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

// CreateUpload validates the declared file and hands back a presigned PUT
// target for the source audio plus the object key to submit with.
func (h *Handlers) CreateUpload(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body", nil)
		return
	}
	if err := generation.ValidateUpload(req.FileType, req.FileSize); err != nil {
		response.Fail(c, err.Error(), nil)
		return
	}

	uploadURL, objectKey, err := h.store.PresignedUploadURL(c, req.FileType)
	if err != nil {
		h.log.Error("failed to presign upload", zap.Error(err))
		response.FailWithStatus(c, http.StatusInternalServerError, "failed to create upload")
		return
	}

	c.JSON(http.StatusOK, gin.H{"uploadUrl": uploadURL, "objectKey": objectKey})
}

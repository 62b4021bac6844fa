package handler

import (
	"net/http"

	"VoiceStudio/internal/models"
	"VoiceStudio/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListHistory returns the persisted clips newest first, each with a fresh or
// cached presigned URL. Clips whose URL cannot be resolved are returned
// without one rather than dropped.
func (h *Handlers) ListHistory(c *gin.Context) {
	var clips []models.GeneratedClip
	if err := h.db.Order("created_at DESC").Find(&clips).Error; err != nil {
		h.log.Error("failed to load history", zap.Error(err))
		response.FailWithStatus(c, http.StatusInternalServerError, "failed to load history")
		return
	}

	entries := make([]models.HistoryEntry, 0, len(clips))
	for i := range clips {
		url, err := h.presignedURL(c, clips[i].ObjectKey)
		if err != nil {
			h.log.Error("failed to presign clip",
				zap.String("id", clips[i].ID), zap.Error(err))
			url = ""
		}
		entries = append(entries, clips[i].ToHistoryEntry(url))
	}
	c.JSON(http.StatusOK, entries)
}

// DeleteHistory removes the clip row and its stored audio. The body always
// carries a success flag; the caller rolls its optimistic removal back on
// false.
func (h *Handlers) DeleteHistory(c *gin.Context) {
	id := c.Param("id")

	var clip models.GeneratedClip
	if err := h.db.First(&clip, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}

	if err := h.db.Delete(&models.GeneratedClip{}, "id = ?", id).Error; err != nil {
		h.log.Error("failed to delete clip", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}

	// best effort; the row is gone either way
	if clip.ObjectKey != "" {
		if err := h.store.Delete(c, clip.ObjectKey); err != nil {
			h.log.Warn("failed to delete stored audio",
				zap.String("id", id), zap.String("key", clip.ObjectKey), zap.Error(err))
		}
		if h.cache != nil {
			_ = h.cache.Delete(c, "presign:"+clip.ObjectKey)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

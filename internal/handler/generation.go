package handler

import (
	"errors"
	"net/http"
	"time"

	"VoiceStudio/internal/generation"
	"VoiceStudio/internal/models"
	"VoiceStudio/pkg/response"
	"VoiceStudio/pkg/sse"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type speechRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
}

// GenerateSpeech accepts a text-to-speech job. The response carries the job
// id to poll plus the advisory throttled flag; a throttled caller is warned,
// not rejected.
func (h *Handlers) GenerateSpeech(c *gin.Context) {
	var req speechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body", nil)
		return
	}
	if err := generation.ValidateText(req.Text); err != nil {
		response.Fail(c, err.Error(), nil)
		return
	}
	voice, ok := h.catalog.Find(models.ServiceStyleTTS2, req.VoiceID)
	if !ok {
		response.Fail(c, "no voices available", nil)
		return
	}

	h.accept(c, models.ServiceStyleTTS2, voice.ID, req.Text, "")
}

type voiceConversionRequest struct {
	ObjectKey string `json:"objectKey"`
	VoiceID   string `json:"voiceId"`
}

// GenerateVoiceConversion accepts a voice-conversion job against previously
// uploaded source audio.
func (h *Handlers) GenerateVoiceConversion(c *gin.Context) {
	var req voiceConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ObjectKey == "" {
		response.Fail(c, "objectKey is required", nil)
		return
	}
	exists, err := h.store.Exists(c, req.ObjectKey)
	if err != nil {
		h.log.Error("failed to check uploaded audio", zap.Error(err))
		response.FailWithStatus(c, http.StatusInternalServerError, "storage unavailable")
		return
	}
	if !exists {
		response.Fail(c, "uploaded audio not found", nil)
		return
	}
	voice, ok := h.catalog.Find(models.ServiceSeedVC, req.VoiceID)
	if !ok {
		response.Fail(c, "no voices available", nil)
		return
	}

	h.accept(c, models.ServiceSeedVC, voice.ID, "", req.ObjectKey)
}

type soundEffectRequest struct {
	Text string `json:"text"`
}

// GenerateSoundEffect accepts a sound-effect job; no voice applies.
func (h *Handlers) GenerateSoundEffect(c *gin.Context) {
	var req soundEffectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body", nil)
		return
	}
	if err := generation.ValidateText(req.Text); err != nil {
		response.Fail(c, err.Error(), nil)
		return
	}

	h.accept(c, models.ServiceMakeAnAudio, "", req.Text, "")
}

func (h *Handlers) accept(c *gin.Context, service models.Service, voiceID, text, sourceKey string) {
	throttled := h.warner != nil && h.warner.Exceeded(c)

	job, err := h.runner.Accept(service, voiceID, text, sourceKey)
	if err != nil {
		h.log.Error("failed to accept job",
			zap.String("service", string(service)), zap.Error(err))
		response.FailWithStatus(c, http.StatusInternalServerError, "failed to accept job")
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobId": job.ID, "throttled": throttled})
}

// JobStatus reports whether a job is done. Pending and processing jobs
// answer success without a URL; a succeeded job carries a presigned URL for
// the generated audio.
func (h *Handlers) JobStatus(c *gin.Context) {
	id := c.Param("jobId")

	var job models.GenerationJob
	if err := h.db.First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.FailWithStatus(c, http.StatusNotFound, "job not found")
			return
		}
		h.log.Error("failed to load job", zap.String("job_id", id), zap.Error(err))
		response.FailWithStatus(c, http.StatusInternalServerError, "failed to load job")
		return
	}

	switch job.Status {
	case models.JobStatusFailed:
		c.JSON(http.StatusOK, gin.H{"success": false})
	case models.JobStatusSucceeded:
		url, err := h.presignedURL(c, job.ResultKey)
		if err != nil {
			h.log.Error("failed to presign result",
				zap.String("job_id", id), zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"success": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "audioUrl": url})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// JobEvents streams status transitions for one job as server-sent events.
// The stream closes itself once a terminal status goes out; a client that
// prefers polling can ignore this endpoint entirely.
func (h *Handlers) JobEvents(c *gin.Context) {
	id := c.Param("jobId")
	var job models.GenerationJob
	if err := h.db.First(&job, "id = ?", id).Error; err != nil {
		response.FailWithStatus(c, http.StatusNotFound, "job not found")
		return
	}

	h.events.Serve(c, id, func(ev sse.Event) bool {
		data, ok := ev.Data.(map[string]string)
		if !ok {
			return false
		}
		s := data["status"]
		return s == models.JobStatusSucceeded || s == models.JobStatusFailed
	})
}

// presignedURL resolves an object key to a time-limited URL, cached for a
// little less than the URL's validity so a cached URL is never near expiry.
func (h *Handlers) presignedURL(c *gin.Context, key string) (string, error) {
	cacheKey := "presign:" + key
	if h.cache != nil {
		if v, ok := h.cache.Get(c, cacheKey); ok {
			if url, ok := v.(string); ok {
				return url, nil
			}
		}
	}

	url, err := h.store.PresignedGetURL(c, key, h.presignExpiry, "")
	if err != nil {
		return "", err
	}
	if h.cache != nil {
		ttl := h.presignExpiry - 5*time.Minute
		if ttl <= 0 {
			ttl = h.presignExpiry / 2
		}
		_ = h.cache.Set(c, cacheKey, url, ttl)
	}
	return url, nil
}

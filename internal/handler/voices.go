package handler

import (
	"net/http"

	"VoiceStudio/internal/models"
	"VoiceStudio/pkg/response"

	"github.com/gin-gonic/gin"
)

// ListVoices returns the static catalog for one service. Voice ids are only
// unique within a service, so the service is part of the query.
func (h *Handlers) ListVoices(c *gin.Context) {
	service := models.Service(c.DefaultQuery("service", string(models.ServiceStyleTTS2)))
	if !service.Valid() {
		response.Fail(c, "unknown service", nil)
		return
	}
	voices := h.catalog.Voices(service)
	c.JSON(http.StatusOK, voices)
}

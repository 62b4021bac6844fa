package handler

import (
	"net/http"

	"VoiceStudio/pkg/middleware"
	"VoiceStudio/pkg/response"

	"github.com/gin-gonic/gin"
)

// Health reports service liveness plus database reachability.
func (h *Handlers) Health(c *gin.Context) {
	dbStatus := "ok"
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c) != nil {
		dbStatus = "down"
	}
	status := http.StatusOK
	if dbStatus != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "database": dbStatus})
}

// RateLimitConfig exposes the live limiter settings.
func (h *Handlers) RateLimitConfig(c *gin.Context) {
	if h.limiter == nil {
		response.FailWithStatus(c, http.StatusNotFound, "rate limiter disabled")
		return
	}
	c.JSON(http.StatusOK, h.limiter.Config())
}

// UpdateRateLimitConfig swaps the limiter settings at runtime.
func (h *Handlers) UpdateRateLimitConfig(c *gin.Context) {
	if h.limiter == nil {
		response.FailWithStatus(c, http.StatusNotFound, "rate limiter disabled")
		return
	}
	var cfg middleware.RateLimiterConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.Fail(c, "invalid config", nil)
		return
	}
	h.limiter.UpdateConfig(cfg)
	response.Success(c, "rate limiter updated", h.limiter.Config())
}

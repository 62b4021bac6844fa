package handler

import (
	"time"

	"VoiceStudio/internal/generation"
	"VoiceStudio/internal/voices"
	"VoiceStudio/pkg/cache"
	"VoiceStudio/pkg/metrics"
	"VoiceStudio/pkg/middleware"
	"VoiceStudio/pkg/sse"
	"VoiceStudio/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handlers wires the HTTP surface to the runner, storage and catalog.
type Handlers struct {
	db      *gorm.DB
	store   storage.Store
	runner  *generation.Runner
	catalog *voices.Catalog
	warner  *middleware.ThrottleWarner
	limiter *middleware.RateLimiter
	cache   cache.Cache
	events  *sse.Hub
	log     *zap.Logger

	presignExpiry time.Duration
}

type Options struct {
	DB            *gorm.DB
	Store         storage.Store
	Runner        *generation.Runner
	Catalog       *voices.Catalog
	Warner        *middleware.ThrottleWarner
	Limiter       *middleware.RateLimiter
	Cache         cache.Cache
	Events        *sse.Hub
	Log           *zap.Logger
	PresignExpiry time.Duration
}

func New(opts Options) *Handlers {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Catalog == nil {
		opts.Catalog = voices.NewCatalog()
	}
	if opts.PresignExpiry <= 0 {
		opts.PresignExpiry = time.Hour
	}
	return &Handlers{
		db:            opts.DB,
		store:         opts.Store,
		runner:        opts.Runner,
		catalog:       opts.Catalog,
		warner:        opts.Warner,
		limiter:       opts.Limiter,
		cache:         opts.Cache,
		events:        opts.Events,
		log:           opts.Log,
		presignExpiry: opts.PresignExpiry,
	}
}

// Register mounts every route under the API prefix.
func (h *Handlers) Register(r *gin.Engine, prefix string) {
	r.Use(metrics.Middleware())
	r.GET("/metrics", metrics.Handler())

	api := r.Group(prefix)
	if h.limiter != nil {
		api.Use(h.limiter.Middleware())
	}

	api.GET("/voices", h.ListVoices)

	idem := middleware.IdempotencyMiddleware(middleware.IdempotencyConfig{Store: h.cache})
	gen := api.Group("/generate")
	gen.POST("/speech", idem, h.GenerateSpeech)
	gen.POST("/voice-conversion", idem, h.GenerateVoiceConversion)
	gen.POST("/sound-effect", idem, h.GenerateSoundEffect)
	gen.GET("/:jobId/status", h.JobStatus)
	if h.events != nil {
		gen.GET("/:jobId/events", h.JobEvents)
	}

	api.POST("/uploads", h.CreateUpload)
	api.GET("/history", h.ListHistory)
	api.DELETE("/history/:id", h.DeleteHistory)

	sys := api.Group("/system")
	sys.GET("/health", h.Health)
	sys.GET("/rate-limiter/config", h.RateLimitConfig)
	sys.POST("/rate-limiter/config", h.UpdateRateLimitConfig)
}

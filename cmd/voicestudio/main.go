package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"VoiceStudio/internal/generation"
	"VoiceStudio/internal/handler"
	"VoiceStudio/internal/inference"
	"VoiceStudio/internal/models"
	"VoiceStudio/internal/voices"
	"VoiceStudio/pkg/cache"
	"VoiceStudio/pkg/config"
	"VoiceStudio/pkg/logger"
	"VoiceStudio/pkg/middleware"
	"VoiceStudio/pkg/scheduler"
	"VoiceStudio/pkg/sse"
	"VoiceStudio/pkg/storage"
	"VoiceStudio/pkg/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}
	cfg := config.GlobalConfig

	logger.Init(cfg.Log)
	defer logger.Sync()
	log := logger.L()

	db, err := util.OpenDatabase(cfg.DBDriver, cfg.DSN)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	if err := db.AutoMigrate(&models.GenerationJob{}, &models.GeneratedClip{}); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	store := storage.NewMinioStore(cfg.PresignExpiry)

	kv, err := cache.NewCache(cache.Config{
		Type: cfg.CacheType,
		Redis: cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
	})
	if err != nil {
		log.Fatal("failed to init cache", zap.Error(err))
	}
	defer kv.Close()

	infer := inference.NewHTTPClient(cfg.InferenceBaseURL, cfg.InferenceAPIKey, cfg.InferenceTimeout)
	events := sse.NewHub(0)
	runner := generation.NewRunner(db, store, infer, log, cfg.InferenceTimeout).WithEvents(events)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:       cfg.APIRate,
		SkipPaths:  []string{"/metrics", cfg.APIPrefix + "/system/health"},
		AddHeaders: true,
	}, nil).WithObserver(middleware.NewPrometheusObserver())

	h := handler.New(handler.Options{
		DB:            db,
		Store:         store,
		Runner:        runner,
		Catalog:       voices.NewCatalog(),
		Warner:        middleware.NewThrottleWarner(cfg.SubmitWarnRate),
		Limiter:       limiter,
		Cache:         kv,
		Events:        events,
		Log:           log,
		PresignExpiry: cfg.PresignExpiry,
	})

	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	h.Register(router, cfg.APIPrefix)

	cr := scheduler.NewCron(nil)
	purge := generation.NewPurgeJob(db, cfg.JobTTL, log)
	if _, err := cr.Add(cfg.PurgeSchedule, purge); err != nil {
		log.Error("failed to schedule job purge", zap.Error(err))
	}
	cr.Start()
	defer cr.Stop()

	srv := &http.Server{Addr: cfg.Addr, Handler: router}
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
}

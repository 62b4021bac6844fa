package config

import (
	"log"
	"os"
	"time"

	"VoiceStudio/pkg/logger"
	"VoiceStudio/pkg/util"
)

type Config struct {
	Addr      string `env:"ADDR"`
	Mode      string `env:"MODE"`
	APIPrefix string `env:"API_PREFIX"`

	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`

	Log logger.LogConfig

	// Inference backends (StyleTTS2, Seed-VC, Make-An-Audio) behind one gateway.
	InferenceBaseURL string        `env:"INFERENCE_BASE_URL"`
	InferenceAPIKey  string        `env:"INFERENCE_API_KEY"`
	InferenceTimeout time.Duration `env:"INFERENCE_TIMEOUT"`

	// Generation job settings.
	JobTTL        time.Duration `env:"GENERATION_JOB_TTL"`
	PurgeSchedule string        `env:"GENERATION_PURGE_SCHEDULE"`

	// Submission rate in ulule/limiter notation; past this the caller gets a
	// throttle warning, requests are still accepted.
	SubmitWarnRate string `env:"SUBMIT_WARN_RATE"`
	APIRate        string `env:"API_RATE"`

	PresignExpiry time.Duration `env:"PRESIGN_EXPIRY"`

	CacheType     string `env:"CACHE_TYPE"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`
}

var GlobalConfig *Config

func Load() error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	GlobalConfig = &Config{
		Addr:      util.GetEnvDefault("ADDR", ":8080"),
		Mode:      util.GetEnv("MODE"),
		APIPrefix: util.GetEnvDefault("API_PREFIX", "/api"),
		DBDriver:  util.GetEnv("DB_DRIVER"),
		DSN:       util.GetEnv("DSN"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		InferenceBaseURL: util.GetEnv("INFERENCE_BASE_URL"),
		InferenceAPIKey:  util.GetEnv("INFERENCE_API_KEY"),
		InferenceTimeout: durationOr("INFERENCE_TIMEOUT", 2*time.Minute),
		JobTTL:           durationOr("GENERATION_JOB_TTL", 24*time.Hour),
		PurgeSchedule:    util.GetEnvDefault("GENERATION_PURGE_SCHEDULE", "@hourly"),
		SubmitWarnRate:   util.GetEnvDefault("SUBMIT_WARN_RATE", "3-M"),
		APIRate:          util.GetEnvDefault("API_RATE", "100-M"),
		PresignExpiry:    durationOr("PRESIGN_EXPIRY", time.Hour),
		CacheType:        util.GetEnvDefault("CACHE_TYPE", "local"),
		RedisAddr:        util.GetEnv("REDIS_ADDR"),
		RedisPassword:    util.GetEnv("REDIS_PASSWORD"),
		RedisDB:          int(util.GetIntEnv("REDIS_DB")),
	}
	return nil
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if d := util.GetDurationEnv(key); d > 0 {
		return d
	}
	return fallback
}

package util

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// LoadEnv loads .env and an environment-specific override (.env.development,
// .env.production). Variables already present in the process take precedence.
func LoadEnv(env string) error {
	if env != "" {
		_ = godotenv.Load(".env." + env)
	}
	return godotenv.Load()
}

func GetEnv(key string) string {
	return os.Getenv(key)
}

func GetEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetIntEnv(key string) int64 {
	return cast.ToInt64(os.Getenv(key))
}

func GetBoolEnv(key string) bool {
	return cast.ToBool(os.Getenv(key))
}

// GetDurationEnv parses values like "500ms" or "1h"; zero when unset or invalid.
func GetDurationEnv(key string) time.Duration {
	return cast.ToDuration(os.Getenv(key))
}

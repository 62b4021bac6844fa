package generation

import (
	"context"
	"time"

	"VoiceStudio/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PurgeJob removes job rows older than the TTL. Clips are kept; only the
// transient polling state expires.
type PurgeJob struct {
	db  *gorm.DB
	ttl time.Duration
	log *zap.Logger
}

func NewPurgeJob(db *gorm.DB, ttl time.Duration, log *zap.Logger) *PurgeJob {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &PurgeJob{db: db, ttl: ttl, log: log}
}

func (p *PurgeJob) Run(ctx context.Context) {
	cutoff := time.Now().Add(-p.ttl)
	res := p.db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&models.GenerationJob{})
	if res.Error != nil {
		p.log.Error("failed to purge stale jobs", zap.Error(res.Error))
		return
	}
	if res.RowsAffected > 0 {
		p.log.Info("purged stale jobs", zap.Int64("count", res.RowsAffected))
	}
}

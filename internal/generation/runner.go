package generation

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"VoiceStudio/internal/inference"
	"VoiceStudio/internal/models"
	"VoiceStudio/pkg/metrics"
	"VoiceStudio/pkg/sse"
	"VoiceStudio/pkg/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Runner executes accepted jobs against the inference backend, stores the
// generated audio and records the history entry. One goroutine per job; the
// job row is the source of truth for status polling.
type Runner struct {
	db      *gorm.DB
	store   storage.Store
	infer   inference.Service
	log     *zap.Logger
	timeout time.Duration
	events  *sse.Hub
}

func NewRunner(db *gorm.DB, store storage.Store, infer inference.Service, log *zap.Logger, timeout time.Duration) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Runner{db: db, store: store, infer: infer, log: log, timeout: timeout}
}

// WithEvents publishes status transitions to the hub, keyed by job id.
func (r *Runner) WithEvents(hub *sse.Hub) *Runner {
	r.events = hub
	return r
}

// Accept persists a new pending job and starts processing it.
func (r *Runner) Accept(service models.Service, voiceID, text, sourceKey string) (*models.GenerationJob, error) {
	job := &models.GenerationJob{
		ID:        uuid.NewString(),
		Service:   service,
		VoiceID:   voiceID,
		Text:      text,
		SourceKey: sourceKey,
		Status:    models.JobStatusPending,
	}
	if err := r.db.Create(job).Error; err != nil {
		return nil, err
	}
	metrics.JobsSubmitted.WithLabelValues(string(service)).Inc()

	go r.run(*job)
	return job, nil
}

func (r *Runner) run(job models.GenerationJob) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	r.update(job.ID, map[string]interface{}{"status": models.JobStatusProcessing})

	result, err := r.infer.Generate(ctx, inference.Request{
		Service:   job.Service,
		VoiceID:   job.VoiceID,
		Text:      job.Text,
		SourceKey: job.SourceKey,
	})
	if err != nil {
		r.fail(job, err)
		return
	}

	key := outputKey(job.Service)
	contentType := result.ContentType
	if contentType == "" {
		contentType = "audio/wav"
	}
	if err := r.store.Write(ctx, key, bytes.NewReader(result.Audio), int64(len(result.Audio)), contentType); err != nil {
		r.fail(job, err)
		return
	}

	r.update(job.ID, map[string]interface{}{
		"status":     models.JobStatusSucceeded,
		"result_key": key,
	})

	clip := models.GeneratedClip{
		ID:        job.ID,
		Title:     clipTitle(job),
		VoiceID:   job.VoiceID,
		Service:   job.Service,
		ObjectKey: key,
		Duration:  "0:30",
	}
	if err := r.db.Create(&clip).Error; err != nil {
		r.log.Error("failed to record history entry",
			zap.String("job_id", job.ID), zap.Error(err))
	}

	metrics.JobsFinished.WithLabelValues(string(job.Service), "succeeded").Inc()
	r.log.Info("generation finished",
		zap.String("job_id", job.ID),
		zap.String("service", string(job.Service)),
		zap.String("result_key", key))
}

func (r *Runner) fail(job models.GenerationJob, cause error) {
	r.log.Error("generation failed",
		zap.String("job_id", job.ID),
		zap.String("service", string(job.Service)),
		zap.Error(cause))
	r.update(job.ID, map[string]interface{}{
		"status":        models.JobStatusFailed,
		"error_message": cause.Error(),
	})
	metrics.JobsFinished.WithLabelValues(string(job.Service), "failed").Inc()
}

func (r *Runner) update(id string, fields map[string]interface{}) {
	if err := r.db.Model(&models.GenerationJob{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		r.log.Error("failed to update job", zap.String("job_id", id), zap.Error(err))
	}
	if r.events != nil {
		if status, ok := fields["status"].(string); ok {
			r.events.Publish(id, sse.Event{Name: "status", Data: map[string]string{
				"jobId":  id,
				"status": status,
			}})
		}
	}
}

// outputKey places generated audio under a per-service prefix.
func outputKey(service models.Service) string {
	return fmt.Sprintf("%s-outputs/%s.wav", service, uuid.NewString())
}

// clipTitle derives the history title: the truncated prompt for text-driven
// jobs, the source file name for conversions.
func clipTitle(job models.GenerationJob) string {
	if job.Service == models.ServiceSeedVC {
		if name := strings.TrimSuffix(path.Base(job.SourceKey), path.Ext(job.SourceKey)); name != "" && name != "." {
			return name
		}
		return "Voice changed audio"
	}
	return models.TitleFromText(job.Text)
}

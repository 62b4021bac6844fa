package models

import "time"

// Service identifies the inference backend a generation runs on.
type Service string

const (
	ServiceStyleTTS2   Service = "styletts2"     // text to speech
	ServiceSeedVC      Service = "seed-vc"       // voice conversion
	ServiceMakeAnAudio Service = "make-an-audio" // sound effects
)

func (s Service) Valid() bool {
	switch s {
	case ServiceStyleTTS2, ServiceSeedVC, ServiceMakeAnAudio:
		return true
	}
	return false
}

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusSucceeded  = "succeeded"
	JobStatusFailed     = "failed"
)

// GenerationJob tracks one asynchronous generation from submission to a
// terminal state. Rows past their TTL are purged by the scheduler.
type GenerationJob struct {
	ID           string  `gorm:"primaryKey;size:64"`
	Service      Service `gorm:"size:32;index"`
	VoiceID      string  `gorm:"size:64"`
	Text         string  `gorm:"type:text"`    // speech / sound-effect prompt
	SourceKey    string  `gorm:"size:1024"`    // uploaded audio, voice conversion only
	Status       string  `gorm:"size:32;index"`
	ResultKey    string  `gorm:"size:1024"`    // object key of the generated audio
	ErrorMessage string  `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (j *GenerationJob) Terminal() bool {
	return j.Status == JobStatusSucceeded || j.Status == JobStatusFailed
}

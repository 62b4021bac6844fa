package inference

import (
	"context"

	"VoiceStudio/internal/models"
)

// Request carries one generation to a backend. Text is the prompt for speech
// and sound effects; SourceKey points at uploaded audio for voice conversion.
type Request struct {
	Service   models.Service
	VoiceID   string
	Text      string
	SourceKey string
}

// Result is the generated audio as returned by the backend.
type Result struct {
	Audio       []byte
	ContentType string
}

// Service abstracts the ML inference gateway so the job runner and the tests
// do not care which backend answered.
type Service interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

package generation

import (
	"strings"

	"VoiceStudio/pkg/errors"
	"VoiceStudio/pkg/storage"
)

const (
	// MaxTextLength caps the prompt for speech and sound-effect jobs.
	MaxTextLength = 5000
	// MaxUploadSize caps source audio for voice conversion, in bytes.
	MaxUploadSize = 50 << 20
)

// ValidateText checks a generation prompt before submission.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("text is required")
	}
	if len([]rune(text)) > MaxTextLength {
		return errors.Errorf("text exceeds the %d character limit", MaxTextLength)
	}
	return nil
}

// ValidateUpload checks the declared type and size of a source audio file.
func ValidateUpload(fileType string, size int64) error {
	if !storage.UploadTypeAllowed(fileType) {
		return errors.New("Only MP3 and WAV files are supported")
	}
	if size > MaxUploadSize {
		return errors.New("File size must be under 50MB")
	}
	return nil
}

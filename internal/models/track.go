package models

import "unicode/utf8"

// Track is a playable audio item with display metadata.
type Track struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	VoiceID   string  `json:"voice"`
	AudioURL  string  `json:"audioUrl"`
	Duration  string  `json:"duration,omitempty"`
	Progress  int     `json:"progress,omitempty"` // 0-100, transient
	Service   Service `json:"service,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
}

const titleLimit = 50

// TitleFromText derives a display title from the generation prompt: the
// first 50 characters, with a trailing ellipsis marker when truncated.
func TitleFromText(text string) string {
	if utf8.RuneCountInString(text) <= titleLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:titleLimit]) + "..."
}

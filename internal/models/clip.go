package models

import "time"

// GeneratedClip is a persisted history entry for the side panel.
type GeneratedClip struct {
	ID        string  `gorm:"primaryKey;size:64"`
	Title     string  `gorm:"size:256"`
	VoiceID   string  `gorm:"size:64"`
	Service   Service `gorm:"size:32;index"`
	ObjectKey string  `gorm:"size:1024"`
	Duration  string  `gorm:"size:16"` // display string, not authoritative
	CreatedAt time.Time
}

// HistoryEntry is the clip projection handed to the client, carrying the
// resolved URL and the calendar bucket used for sectioning.
type HistoryEntry struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	VoiceID  string  `json:"voice"`
	Service  Service `json:"service"`
	AudioURL string  `json:"audioUrl"`
	Duration string  `json:"duration"`
	Date     string  `json:"date"`
	Time     string  `json:"time"`
}

func (c *GeneratedClip) ToHistoryEntry(audioURL string) HistoryEntry {
	return HistoryEntry{
		ID:       c.ID,
		Title:    c.Title,
		VoiceID:  c.VoiceID,
		Service:  c.Service,
		AudioURL: audioURL,
		Duration: c.Duration,
		Date:     c.CreatedAt.Format("1/2/2006"),
		Time:     c.CreatedAt.Format("3:04 PM"),
	}
}

// ToTrack builds the playable projection. Callers must only do this once a
// resolved URL exists; the playback coordinator assumes AudioURL is set.
func (e HistoryEntry) ToTrack() Track {
	return Track{
		ID:        e.ID,
		Title:     e.Title,
		VoiceID:   e.VoiceID,
		AudioURL:  e.AudioURL,
		Duration:  e.Duration,
		Service:   e.Service,
		CreatedAt: e.Date,
	}
}

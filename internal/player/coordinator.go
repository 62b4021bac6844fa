package player

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"VoiceStudio/internal/models"

	"go.uber.org/zap"
)

// Coordinator owns the current track and the play/pause state, and is the
// only component allowed to drive the device. UI surfaces read state from it
// and never touch the device directly.
type Coordinator struct {
	mu sync.Mutex

	mgr *Manager
	log *zap.Logger

	current     *models.Track
	playing     bool
	playbarOpen bool
	wired       bool

	// schedule defers device work past the state update that makes a track
	// current. Tests replace it with a synchronous call.
	schedule func(func())

	httpc *http.Client
}

func NewCoordinator(mgr *Manager, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		mgr:      mgr,
		log:      log,
		schedule: func(f func()) { go f() },
		httpc:    &http.Client{Timeout: 60 * time.Second},
	}
}

// PlayTrack makes the track current and starts playback. Requesting the
// track that is already current toggles play/pause instead of reloading, so
// the position survives a repeated click.
func (c *Coordinator) PlayTrack(track models.Track) {
	device := c.device()

	c.mu.Lock()
	if c.current != nil && c.current.AudioURL == track.AudioURL {
		c.mu.Unlock()
		c.TogglePlayPause()
		return
	}

	t := track
	c.current = &t
	c.playbarOpen = true
	c.playing = true
	c.mu.Unlock()

	if device == nil {
		return
	}
	// bind after the state update so the UI already shows the new track
	// while the device is still loading
	c.schedule(func() {
		device.SetSource(track.AudioURL)
		device.Play()
	})
}

// TogglePlayPause flips playback for the current track. No-op without a
// current track or a device.
func (c *Coordinator) TogglePlayPause() {
	device := c.device()

	c.mu.Lock()
	if device == nil || c.current == nil {
		c.mu.Unlock()
		return
	}

	if c.playing {
		c.playing = false
		c.mu.Unlock()
		device.Pause()
		return
	}

	url := c.current.AudioURL
	c.playing = true
	c.mu.Unlock()

	if device.Source() == "" && url != "" {
		device.SetSource(url)
	}
	device.Play()
}

func (c *Coordinator) TogglePlaybar() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playbarOpen = !c.playbarOpen
}

func (c *Coordinator) SkipForward(seconds float64) {
	if device := c.mgr.Device(); device != nil {
		device.SkipForward(seconds)
	}
}

func (c *Coordinator) SkipBackward(seconds float64) {
	if device := c.mgr.Device(); device != nil {
		device.SkipBackward(seconds)
	}
}

// Download saves the current track's audio into dir and returns the written
// path. No-op (empty path, nil error) without a current track or a resolved
// location.
func (c *Coordinator) Download(dir string) (string, error) {
	c.mu.Lock()
	track := c.current
	c.mu.Unlock()
	if track == nil || track.AudioURL == "" {
		return "", nil
	}

	resp, err := c.httpc.Get(track.AudioURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch audio: status %d", resp.StatusCode)
	}

	title := track.Title
	if title == "" {
		title = "audio"
	}
	path := filepath.Join(dir, sanitizeFilename(title)+".wav")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", err
	}
	return path, nil
}

func (c *Coordinator) CurrentTrack() (models.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return models.Track{}, false
	}
	return *c.current, true
}

func (c *Coordinator) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

func (c *Coordinator) PlaybarOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playbarOpen
}

// Progress reports the device's played percentage, 0 without a device.
func (c *Coordinator) Progress() float64 {
	if device := c.mgr.Device(); device != nil {
		return device.Progress()
	}
	return 0
}

// device initializes the handle and wires the playback error handler once.
// Every device failure lands here and resets the playing flag; the track
// stays selected so the user can retry.
func (c *Coordinator) device() Device {
	d := c.mgr.Initialize()
	if d == nil {
		return nil
	}
	c.mu.Lock()
	if !c.wired {
		c.wired = true
		d.SetErrorHandler(func(err error) {
			c.log.Error("error playing audio", zap.Error(err))
			c.mu.Lock()
			c.playing = false
			c.mu.Unlock()
		})
	}
	c.mu.Unlock()
	return d
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

package player

import "sync"

// Device is the transport surface of the one audio output available to the
// process. Implementations deliver playback failures through the error
// handler, never synchronously from Play.
type Device interface {
	// SetSource binds the device to a new audio location and resets the
	// position to zero.
	SetSource(url string)

	// Source returns the currently bound location, empty when unbound.
	Source() string

	Play()
	Pause()

	// SkipForward and SkipBackward clamp the resulting position to
	// [0, duration] and are no-ops while the duration is unknown.
	SkipForward(seconds float64)
	SkipBackward(seconds float64)

	CurrentPosition() float64
	Duration() float64

	// Progress returns the played percentage, 0 while duration is unknown.
	Progress() float64

	// SetErrorHandler registers the callback invoked when playback fails.
	SetErrorHandler(fn func(error))

	Close() error
}

// Manager lazily creates and hands out the single device. The factory may
// report that no device is available (headless environment), in which case
// Initialize keeps returning nil and callers degrade to state-only behavior.
type Manager struct {
	mu      sync.Mutex
	device  Device
	factory func() (Device, error)
	tried   bool
}

func NewManager(factory func() (Device, error)) *Manager {
	return &Manager{factory: factory}
}

// Initialize creates the device on first use; later calls return the same
// handle. Returns nil when the environment has no audio output.
func (m *Manager) Initialize() Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device != nil {
		return m.device
	}
	if m.tried || m.factory == nil {
		return nil
	}
	m.tried = true
	d, err := m.factory()
	if err != nil || d == nil {
		return nil
	}
	m.device = d
	return m.device
}

// Device returns the handle without creating it.
func (m *Manager) Device() Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.device
}

// progressPercent converts a position/duration pair into 0-100, returning 0
// rather than NaN when the duration is unknown.
func progressPercent(position, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return position / duration * 100
}

// clampPosition bounds a seek target to the playable range.
func clampPosition(position, duration float64) float64 {
	if position < 0 {
		return 0
	}
	if duration > 0 && position > duration {
		return duration
	}
	return position
}

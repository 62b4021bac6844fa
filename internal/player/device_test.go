package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressPercent(t *testing.T) {
	// unknown duration yields 0, not NaN
	assert.Equal(t, 0.0, progressPercent(10, 0))
	assert.Equal(t, 0.0, progressPercent(0, 0))

	assert.Equal(t, 50.0, progressPercent(15, 30))
	assert.Equal(t, 100.0, progressPercent(30, 30))
}

func TestClampPosition(t *testing.T) {
	assert.Equal(t, 0.0, clampPosition(-3, 30))
	assert.Equal(t, 30.0, clampPosition(42, 30))
	assert.Equal(t, 12.0, clampPosition(12, 30))
}

func TestSkipClampsAtBounds(t *testing.T) {
	d := &fakeDevice{dur: 30, pos: 25}

	d.SkipForward(10)
	assert.Equal(t, 30.0, d.CurrentPosition())

	d.SkipBackward(50)
	assert.Equal(t, 0.0, d.CurrentPosition())
}

func TestSkipNoopWhenDurationUnknown(t *testing.T) {
	d := &fakeDevice{pos: 5}
	d.SkipForward(10)
	assert.Equal(t, 5.0, d.CurrentPosition())
}

func TestManagerInitializeIsIdempotent(t *testing.T) {
	calls := 0
	mgr := NewManager(func() (Device, error) {
		calls++
		return &fakeDevice{}, nil
	})

	first := mgr.Initialize()
	second := mgr.Initialize()
	assert.NotNil(t, first)
	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleFromText(t *testing.T) {
	t.Run("short text kept verbatim", func(t *testing.T) {
		assert.Equal(t, "hello world", TitleFromText("hello world"))
	})

	t.Run("exactly fifty characters kept verbatim", func(t *testing.T) {
		text := strings.Repeat("a", 50)
		assert.Equal(t, text, TitleFromText(text))
	})

	t.Run("long text truncated with ellipsis", func(t *testing.T) {
		text := strings.Repeat("a", 80)
		got := TitleFromText(text)
		assert.Equal(t, strings.Repeat("a", 50)+"...", got)
	})

	t.Run("truncation is rune aware", func(t *testing.T) {
		text := strings.Repeat("ü", 60)
		got := TitleFromText(text)
		assert.Equal(t, strings.Repeat("ü", 50)+"...", got)
	})
}

func TestServiceValid(t *testing.T) {
	assert.True(t, ServiceStyleTTS2.Valid())
	assert.True(t, ServiceSeedVC.Valid())
	assert.True(t, ServiceMakeAnAudio.Valid())
	assert.False(t, Service("whisper").Valid())
}

package voices

import (
	"testing"

	"VoiceStudio/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCatalogScoping(t *testing.T) {
	c := NewCatalog()

	t.Run("ids are scoped per service", func(t *testing.T) {
		// the same id exists under two services and must resolve per service
		tts, ok := c.Find(models.ServiceStyleTTS2, "divyankar")
		assert.True(t, ok)
		assert.Equal(t, models.ServiceStyleTTS2, tts.Service)

		vc, ok := c.Find(models.ServiceSeedVC, "divyankar")
		assert.True(t, ok)
		assert.Equal(t, models.ServiceSeedVC, vc.Service)
	})

	t.Run("voice exclusive to one service", func(t *testing.T) {
		_, ok := c.Find(models.ServiceSeedVC, "trump")
		assert.True(t, ok)

		// styletts2 has no trump voice: Find falls back to the first entry
		v, ok := c.Find(models.ServiceStyleTTS2, "trump")
		assert.True(t, ok)
		assert.Equal(t, "divyankar", v.ID)
	})

	t.Run("service without voices", func(t *testing.T) {
		_, ok := c.Find(models.ServiceMakeAnAudio, "anything")
		assert.False(t, ok)
		_, ok = c.Default(models.ServiceMakeAnAudio)
		assert.False(t, ok)
	})

	t.Run("listing filters by service", func(t *testing.T) {
		assert.Len(t, c.Voices(models.ServiceStyleTTS2), 2)
		assert.Len(t, c.Voices(models.ServiceSeedVC), 3)
		assert.Empty(t, c.Voices(models.ServiceMakeAnAudio))
	})
}

package voices

import "VoiceStudio/internal/models"

var gradientColors = []string{
	"linear-gradient(45deg, #8b5cf6, #ec4899, #ffffff, #3b82f6)",
	"linear-gradient(45deg, #1e3a8a, #3b82f6, #ffffff, #93c5fd)",
	"linear-gradient(45deg, #ec4899, #f97316, #ffffff, #8b5cf6)",
	"linear-gradient(45deg, #10b981, #f59e0b, #ffffff, #10b981)",
	"linear-gradient(45deg, #f43f5e, #f59e0b, #ffffff, #10b981)",
}

// Voice is a static catalog entry. IDs are unique only within a service, so
// every lookup goes through a service filter first.
type Voice struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Gradient string         `json:"gradient"`
	Service  models.Service `json:"service"`
}

// Catalog holds the static voice list; not fetched remotely.
type Catalog struct {
	voices []Voice
}

func NewCatalog() *Catalog {
	return &Catalog{voices: []Voice{
		{ID: "divyankar", Name: "Divyankar", Gradient: gradientColors[1], Service: models.ServiceStyleTTS2},
		{ID: "woman", Name: "Woman", Gradient: gradientColors[0], Service: models.ServiceStyleTTS2},
		{ID: "divyankar", Name: "Divyankar", Gradient: gradientColors[1], Service: models.ServiceSeedVC},
		{ID: "woman", Name: "Woman", Gradient: gradientColors[0], Service: models.ServiceSeedVC},
		{ID: "trump", Name: "Trump", Gradient: gradientColors[2], Service: models.ServiceSeedVC},
	}}
}

// Voices returns the catalog slice for one service.
func (c *Catalog) Voices(service models.Service) []Voice {
	var out []Voice
	for _, v := range c.voices {
		if v.Service == service {
			out = append(out, v)
		}
	}
	return out
}

// Find resolves a voice id within a service. When the id is unknown it falls
// back to the service's first voice; ok is false only when the service has no
// voices at all.
func (c *Catalog) Find(service models.Service, id string) (Voice, bool) {
	serviceVoices := c.Voices(service)
	for _, v := range serviceVoices {
		if v.ID == id {
			return v, true
		}
	}
	if len(serviceVoices) > 0 {
		return serviceVoices[0], true
	}
	return Voice{}, false
}

// Default returns the first voice of a service, if any.
func (c *Catalog) Default(service models.Service) (Voice, bool) {
	serviceVoices := c.Voices(service)
	if len(serviceVoices) == 0 {
		return Voice{}, false
	}
	return serviceVoices[0], true
}

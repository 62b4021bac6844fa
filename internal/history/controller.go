package history

import (
	"context"
	"strings"
	"sync"

	"VoiceStudio/internal/models"
	"VoiceStudio/internal/voices"

	"go.uber.org/zap"
)

// Source is the server side of the history panel.
type Source interface {
	History(ctx context.Context) ([]models.HistoryEntry, error)
	DeleteClip(ctx context.Context, id string) (bool, error)
}

// Player receives the track when the user plays a history entry; the
// playback coordinator implements it.
type Player interface {
	PlayTrack(track models.Track)
}

// Group is one date section of the panel, entries in fetch order.
type Group struct {
	Date    string                `json:"date"`
	Entries []models.HistoryEntry `json:"entries"`
}

// Controller caches the fetched history and serves the filtered, grouped
// view. Deletes are optimistic: the entry disappears immediately and comes
// back in place if the server refuses.
type Controller struct {
	source  Source
	player  Player
	catalog *voices.Catalog
	log     *zap.Logger

	mu      sync.Mutex
	entries []models.HistoryEntry
}

func NewController(source Source, player Player, catalog *voices.Catalog, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if catalog == nil {
		catalog = voices.NewCatalog()
	}
	return &Controller{source: source, player: player, catalog: catalog, log: log}
}

// Refresh replaces the cached entries with the server's current list.
func (c *Controller) Refresh(ctx context.Context) error {
	entries, err := c.source.History(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return nil
}

// List returns the date groups matching the filter. The filter is matched
// case-insensitively against the title and the voice's display name; an
// empty filter matches everything. Groups appear in the order their date is
// first seen, which for a newest-first fetch keeps recent days on top.
func (c *Controller) List(filter string) []Group {
	c.mu.Lock()
	entries := append([]models.HistoryEntry(nil), c.entries...)
	c.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(filter))

	var groups []Group
	index := map[string]int{}
	for _, e := range entries {
		if needle != "" && !c.matches(e, needle) {
			continue
		}
		i, ok := index[e.Date]
		if !ok {
			i = len(groups)
			index[e.Date] = i
			groups = append(groups, Group{Date: e.Date})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}

func (c *Controller) matches(e models.HistoryEntry, needle string) bool {
	if strings.Contains(strings.ToLower(e.Title), needle) {
		return true
	}
	name := e.VoiceID
	if v, ok := c.catalog.Find(e.Service, e.VoiceID); ok {
		name = v.Name
	}
	return strings.Contains(strings.ToLower(name), needle)
}

// Delete removes the entry optimistically, then asks the server. When the
// server reports failure or the call errors, the pre-delete snapshot is put
// back wholesale, so edits that landed while the delete was in flight are
// reverted too; a server-side refusal without a transport error returns nil
// with confirmed=false.
func (c *Controller) Delete(ctx context.Context, id string) (confirmed bool, err error) {
	c.mu.Lock()
	snapshot := append([]models.HistoryEntry(nil), c.entries...)
	pos := -1
	for i, e := range c.entries {
		if e.ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		c.mu.Unlock()
		return false, nil
	}
	remaining := append([]models.HistoryEntry(nil), c.entries[:pos]...)
	c.entries = append(remaining, c.entries[pos+1:]...)
	c.mu.Unlock()

	ok, err := c.source.DeleteClip(ctx, id)
	if err != nil || !ok {
		if err != nil {
			c.log.Error("error deleting audio", zap.String("id", id), zap.Error(err))
		}
		c.mu.Lock()
		c.entries = snapshot
		c.mu.Unlock()
		return false, err
	}
	return true, nil
}

// PlayEntry hands the entry to the player. Entries without a resolved URL
// are skipped; nothing to play yet.
func (c *Controller) PlayEntry(id string) {
	c.mu.Lock()
	var entry *models.HistoryEntry
	for i := range c.entries {
		if c.entries[i].ID == id {
			entry = &c.entries[i]
			break
		}
	}
	c.mu.Unlock()

	if entry == nil || entry.AudioURL == "" {
		return
	}
	c.player.PlayTrack(entry.ToTrack())
}

// Entries returns the cached list, newest first.
func (c *Controller) Entries() []models.HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.HistoryEntry(nil), c.entries...)
}

package cache

import (
	"context"
	"testing"
	"time"
)

func TestLocalCache(t *testing.T) {
	config := LocalConfig{
		DefaultExpiration: 5 * time.Minute,
		CleanupInterval:   10 * time.Minute,
	}

	c := NewLocalCache(config)
	defer c.Close()

	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		if err := c.Set(ctx, "presign:clip-1", "https://example.com/clip-1", time.Minute); err != nil {
			t.Errorf("Failed to set cache: %v", err)
		}

		if retrieved, exists := c.Get(ctx, "presign:clip-1"); !exists {
			t.Error("Cache value not found")
		} else if retrieved != "https://example.com/clip-1" {
			t.Errorf("Expected presigned url, got %v", retrieved)
		}
	})

	t.Run("Add is first-writer-wins", func(t *testing.T) {
		if !c.Add(ctx, "idem:abc", 1, time.Minute) {
			t.Error("first Add should succeed")
		}
		if c.Add(ctx, "idem:abc", 2, time.Minute) {
			t.Error("second Add for the same key should fail")
		}
	})

	t.Run("GetWithTTL", func(t *testing.T) {
		if err := c.Set(ctx, "ttl_key", "v", time.Minute); err != nil {
			t.Fatalf("Failed to set cache: %v", err)
		}
		_, ttl, exists := c.GetWithTTL(ctx, "ttl_key")
		if !exists {
			t.Fatal("Cache value not found")
		}
		if ttl <= 0 || ttl > time.Minute {
			t.Errorf("unexpected ttl %v", ttl)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = c.Set(ctx, "gone", "v", time.Minute)
		_ = c.Delete(ctx, "gone")
		if c.Exists(ctx, "gone") {
			t.Error("key should be deleted")
		}
	})
}

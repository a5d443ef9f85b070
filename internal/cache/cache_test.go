package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLGetSet(t *testing.T) {
	c := NewTTL[string](time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("key", "value")
	got, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestTTLExpiry(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	c := NewTTL[int](30 * time.Minute)
	c.SetClock(func() time.Time { return now })

	c.Set("temp", 21)

	// Just inside the TTL
	now = now.Add(29 * time.Minute)
	got, ok := c.Get("temp")
	require.True(t, ok)
	assert.Equal(t, 21, got)

	// At the TTL boundary the entry is gone
	now = now.Add(time.Minute)
	_, ok = c.Get("temp")
	assert.False(t, ok)

	// Expired entry was evicted, not just hidden
	_, ok = c.Get("temp")
	assert.False(t, ok)
}

func TestTTLSetResetsExpiry(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	c := NewTTL[int](time.Hour)
	c.SetClock(func() time.Time { return now })

	c.Set("articles", 1)
	now = now.Add(45 * time.Minute)
	c.Set("articles", 2)

	now = now.Add(30 * time.Minute)
	got, ok := c.Get("articles")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestTTLClear(t *testing.T) {
	c := NewTTL[string](time.Hour)
	c.Set("a", "1")
	c.Set("b", "2")

	c.Clear()

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
}

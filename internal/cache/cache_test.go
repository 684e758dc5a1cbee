package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := New(time.Minute)
	c.Set(TeamStatsKey("tribe-1"), 42)

	value, ok := c.Get(TeamStatsKey("tribe-1"))
	require.True(t, ok)
	require.Equal(t, 42, value)

	_, ok = c.Get(TeamStatsKey("tribe-2"))
	require.False(t, ok)
}

func TestExpiry(t *testing.T) {
	c := New(time.Minute)
	current := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Set("key", "value")

	current = current.Add(59 * time.Second)
	_, ok := c.Get("key")
	require.True(t, ok)

	current = current.Add(2 * time.Second)
	_, ok = c.Get("key")
	require.False(t, ok, "entries expire after the TTL")
}

func TestInvalidate(t *testing.T) {
	c := New(time.Minute)
	c.Set(GamificationKey("user-1"), 1)
	c.Set(GamificationKey("user-2"), 2)
	c.Set(TeamStatsKey("tribe-1"), 3)

	c.Invalidate(GamificationKey("user-1"), TeamStatsKey("tribe-1"))

	_, ok := c.Get(GamificationKey("user-1"))
	require.False(t, ok)
	_, ok = c.Get(TeamStatsKey("tribe-1"))
	require.False(t, ok)
	_, ok = c.Get(GamificationKey("user-2"))
	require.True(t, ok)
}

func TestInvalidatePrefix(t *testing.T) {
	c := New(time.Minute)
	c.Set(TeamStatsKey("tribe-1"), 1)
	c.Set(TeamStatsKey("tribe-2"), 2)
	c.Set(GamificationKey("user-1"), 3)

	c.InvalidatePrefix("teamstats:")

	_, ok := c.Get(TeamStatsKey("tribe-1"))
	require.False(t, ok)
	_, ok = c.Get(TeamStatsKey("tribe-2"))
	require.False(t, ok)
	_, ok = c.Get(GamificationKey("user-1"))
	require.True(t, ok)
}

// SPDX-License-Identifier: MIT

package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedis(RedisConfig{Addr: mr.Addr()}, zerolog.Nop())
	require.NoError(t, err)
	return s, mr
}

func TestRedisGetSet(t *testing.T) {
	s, _ := newRedisStore(t)

	s.Set("4gtv-live001|1", "https://cdn.example.test/index.m3u8", time.Hour)

	url, ok := s.Get("4gtv-live001|1")
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.test/index.m3u8", url)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestRedisTTL(t *testing.T) {
	s, mr := newRedisStore(t)

	s.Set("k", "url", time.Hour)
	_, ok := s.Get("k")
	require.True(t, ok)

	// miniredis only expires keys when time is advanced explicitly.
	mr.FastForward(time.Hour + time.Second)
	_, ok = s.Get("k")
	assert.False(t, ok, "entry must expire after TTL")
}

func TestRedisDelete(t *testing.T) {
	s, _ := newRedisStore(t)
	s.Set("k", "url", time.Hour)
	s.Delete("k")
	_, ok := s.Get("k")
	assert.False(t, ok)
}

func TestRedisStats(t *testing.T) {
	s, _ := newRedisStore(t)
	s.Set("k", "url", time.Hour)
	s.Get("k")
	s.Get("nope")

	stats := s.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestNewRedisUnreachable(t *testing.T) {
	_, err := NewRedis(RedisConfig{Addr: "127.0.0.1:1"}, zerolog.Nop())
	require.Error(t, err)
}

package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleRateLimiter(t *testing.T) {
	rl := NewSimpleRateLimiter(1, 2)
	require.NotNil(t, rl)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "burst spent")
	assert.True(t, rl.Allow("b"), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"), "one token refilled")
	assert.False(t, rl.Allow("a"))

	now = now.Add(time.Hour)
	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "refill is capped at burst")
}

func TestSimpleRateLimiter_Disabled(t *testing.T) {
	assert.Nil(t, NewSimpleRateLimiter(0, 10))
}

func TestSimpleRateLimiter_Prune(t *testing.T) {
	rl := NewSimpleRateLimiter(1, 1)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(time.Minute)
	rl.Allow("fresh")

	assert.Equal(t, 1, rl.Prune(30*time.Second))
	assert.Len(t, rl.buckets, 1)
	assert.Contains(t, rl.buckets, "fresh")
}

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClaimStore(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewMemoryClaimStore(30 * time.Minute)
	s.Now = func() time.Time { return now }
	ctx := context.Background()

	ok, err := s.Verified(ctx, "sess", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Grant(ctx, "sess", 1))

	ok, _ = s.Verified(ctx, "sess", 1)
	assert.True(t, ok)

	// claims are per share and per session
	ok, _ = s.Verified(ctx, "sess", 2)
	assert.False(t, ok)
	ok, _ = s.Verified(ctx, "other", 1)
	assert.False(t, ok)

	now = now.Add(31 * time.Minute)
	ok, _ = s.Verified(ctx, "sess", 1)
	assert.False(t, ok)
}

func TestRedisClaimStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	s, err := NewRedisClaimStore(url, time.Minute)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))

	session := uuid.NewString()
	ok, err := s.Verified(ctx, session, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Grant(ctx, session, 7))
	ok, err = s.Verified(ctx, session, 7)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewRedisClaimStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisClaimStore("not-a-url", time.Minute)
	assert.Error(t, err)
}

package lock

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestRedisLocker_Exclusion(t *testing.T) {
	client, _ := setupTestRedis(t)
	exerciseExclusion(t, NewRedisLocker(client, "paddock:lock:", 5*time.Second), 4, 5)
}

func TestRedisLocker_ReleaseDeletesKey(t *testing.T) {
	client, mr := setupTestRedis(t)
	locker := NewRedisLocker(client, "paddock:lock:", 5*time.Second)

	unlock, err := locker.Lock(context.Background(), "roster:team:t1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("paddock:lock:roster:team:t1"))

	unlock()
	assert.False(t, mr.Exists("paddock:lock:roster:team:t1"))
}

func TestRedisLocker_ReleaseKeepsForeignToken(t *testing.T) {
	client, mr := setupTestRedis(t)
	locker := NewRedisLocker(client, "paddock:lock:", time.Second)

	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	// Our lock expires and another process takes the key
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("paddock:lock:k", "someone-else"))

	unlock()
	got, err := mr.Get("paddock:lock:k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLocker_ExtendsWhileHeld(t *testing.T) {
	client, mr := setupTestRedis(t)
	locker := NewRedisLocker(client, "paddock:lock:", 300*time.Millisecond)
	key := "paddock:lock:roster:set:s1"

	unlock, err := locker.Lock(context.Background(), "roster:set:s1")
	require.NoError(t, err)

	// Most of the TTL passes while the holder is still working
	mr.FastForward(250 * time.Millisecond)
	require.True(t, mr.Exists(key))
	assert.Eventually(t, func() bool { return mr.TTL(key) > 200*time.Millisecond }, 2*time.Second, 10*time.Millisecond)

	// A second process still cannot take it
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "roster:set:s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.False(t, mr.Exists(key))
}

func TestRedisLocker_ReleaseWithServerGone(t *testing.T) {
	client, mr := setupTestRedis(t)
	locker := NewRedisLocker(client, "paddock:lock:", time.Second)

	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	mr.Close()
	assert.NotPanics(t, unlock)
	assert.NotPanics(t, unlock)
}

func TestRedisLocker_ContextCancel(t *testing.T) {
	client, _ := setupTestRedis(t)
	locker := NewRedisLocker(client, "paddock:lock:", 5*time.Second)

	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewRedisClient(t *testing.T) {
	_, mr := setupTestRedis(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	client.Close()

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

package token

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches on miss and caches", func(t *testing.T) {
		cache := NewCache(time.Minute)
		configID := uuid.New()
		var calls int32
		fetch := func(ctx context.Context) (Token, error) {
			atomic.AddInt32(&calls, 1)
			return Token{AccessToken: "tok-1", TokenType: "Bearer", ExpiresAt: time.Now().Add(time.Hour)}, nil
		}

		first, err := cache.Get(ctx, configID, fetch)
		require.NoError(t, err)
		second, err := cache.Get(ctx, configID, fetch)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), calls)
	})

	t.Run("refreshes inside the expiry skew", func(t *testing.T) {
		cache := NewCache(time.Minute)
		configID := uuid.New()
		var calls int32
		fetch := func(ctx context.Context) (Token, error) {
			n := atomic.AddInt32(&calls, 1)
			expiry := time.Now().Add(30 * time.Second)
			if n > 1 {
				expiry = time.Now().Add(time.Hour)
			}
			return Token{AccessToken: "tok", ExpiresAt: expiry}, nil
		}

		_, err := cache.Get(ctx, configID, fetch)
		require.NoError(t, err)
		// Still expires within the skew, so the next Get refreshes.
		_, err = cache.Get(ctx, configID, fetch)
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls)
	})

	t.Run("concurrent callers share one fetch", func(t *testing.T) {
		cache := NewCache(time.Minute)
		configID := uuid.New()
		var calls int32
		fetch := func(ctx context.Context) (Token, error) {
			atomic.AddInt32(&calls, 1)
			time.Sleep(20 * time.Millisecond)
			return Token{AccessToken: "shared", ExpiresAt: time.Now().Add(time.Hour)}, nil
		}

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tok, err := cache.Get(ctx, configID, fetch)
				assert.NoError(t, err)
				assert.Equal(t, "shared", tok.AccessToken)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), calls)
	})

	t.Run("separate configurations do not share tokens", func(t *testing.T) {
		cache := NewCache(time.Minute)
		fetchFor := func(value string) FetchFunc {
			return func(ctx context.Context) (Token, error) {
				return Token{AccessToken: value, ExpiresAt: time.Now().Add(time.Hour)}, nil
			}
		}

		a, err := cache.Get(ctx, uuid.New(), fetchFor("tok-a"))
		require.NoError(t, err)
		b, err := cache.Get(ctx, uuid.New(), fetchFor("tok-b"))
		require.NoError(t, err)

		assert.NotEqual(t, a.AccessToken, b.AccessToken)
	})

	t.Run("fetch errors are not cached", func(t *testing.T) {
		cache := NewCache(time.Minute)
		configID := uuid.New()
		var calls int32
		fetch := func(ctx context.Context) (Token, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				return Token{}, errors.New("identity provider unavailable")
			}
			return Token{AccessToken: "recovered", ExpiresAt: time.Now().Add(time.Hour)}, nil
		}

		_, err := cache.Get(ctx, configID, fetch)
		require.Error(t, err)

		tok, err := cache.Get(ctx, configID, fetch)
		require.NoError(t, err)
		assert.Equal(t, "recovered", tok.AccessToken)
	})
}

func TestCache_Invalidate(t *testing.T) {
	cache := NewCache(time.Minute)
	configID := uuid.New()
	var calls int32
	fetch := func(ctx context.Context) (Token, error) {
		atomic.AddInt32(&calls, 1)
		return Token{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}

	_, err := cache.Get(context.Background(), configID, fetch)
	require.NoError(t, err)

	cache.Invalidate(configID)

	_, err = cache.Get(context.Background(), configID, fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls)
}

// Package token caches vendor OAuth access tokens per connector
// configuration. Concurrent refreshes for the same configuration are
// collapsed into a single upstream request.
package token

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// DefaultExpirySkew is subtracted from token lifetimes so a token is
// refreshed before the vendor actually rejects it.
const DefaultExpirySkew = 60 * time.Second

// Token is a cached vendor access token
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Valid reports whether the token is still usable at the given instant
func (t Token) Valid(now time.Time, skew time.Duration) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt.Add(-skew))
}

// FetchFunc acquires a fresh token from the vendor
type FetchFunc func(ctx context.Context) (Token, error)

// Cache holds one token per connector configuration
type Cache struct {
	mu     sync.RWMutex
	tokens map[uuid.UUID]Token
	group  singleflight.Group
	skew   time.Duration

	now func() time.Time
}

// NewCache creates a token cache with the given expiry skew. A zero skew
// falls back to DefaultExpirySkew.
func NewCache(skew time.Duration) *Cache {
	if skew <= 0 {
		skew = DefaultExpirySkew
	}
	return &Cache{
		tokens: make(map[uuid.UUID]Token),
		skew:   skew,
		now:    time.Now,
	}
}

// Get returns the cached token for a configuration, refreshing it via fetch
// when missing or near expiry. Concurrent callers for the same configuration
// share one fetch.
func (c *Cache) Get(ctx context.Context, configID uuid.UUID, fetch FetchFunc) (Token, error) {
	c.mu.RLock()
	token, ok := c.tokens[configID]
	c.mu.RUnlock()
	if ok && token.Valid(c.now(), c.skew) {
		return token, nil
	}

	result, err, _ := c.group.Do(configID.String(), func() (any, error) {
		// Another caller may have refreshed while we waited on the flight.
		c.mu.RLock()
		cached, ok := c.tokens[configID]
		c.mu.RUnlock()
		if ok && cached.Valid(c.now(), c.skew) {
			return cached, nil
		}

		fresh, err := fetch(ctx)
		if err != nil {
			return Token{}, err
		}
		c.mu.Lock()
		c.tokens[configID] = fresh
		c.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return Token{}, err
	}
	return result.(Token), nil
}

// Invalidate drops the cached token for a configuration, forcing the next
// Get to refresh. Used after a vendor 401 on a supposedly valid token.
func (c *Cache) Invalidate(configID uuid.UUID) {
	c.mu.Lock()
	delete(c.tokens, configID)
	c.mu.Unlock()
}

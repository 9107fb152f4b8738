/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package clientpool

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"
)

func TestPoolReusesClientForValidToken(t *testing.T) {
	pool := NewPool()
	token := makeToken("user-1", time.Hour)

	first := pool.GetClient(token)
	second := pool.GetClient(token)

	require.Same(t, first, second)
	require.Equal(t, "user-1", first.Subject)
	require.Equal(t, 1, pool.Len())
}

func TestPoolConstructsDistinctClientsPerToken(t *testing.T) {
	pool := NewPool()

	first := pool.GetClient(makeToken("user-1", time.Hour))
	second := pool.GetClient(makeToken("user-2", time.Hour))

	require.NotSame(t, first, second)
	require.Equal(t, 2, pool.Len())
}

func TestPoolNeverCachesAlmostExpiredToken(t *testing.T) {
	pool := NewPool()
	token := makeToken("user-1", time.Second*200) // Within the 5-minute expiry margin.

	first := pool.GetClient(token)
	second := pool.GetClient(token)

	require.NotNil(t, first)
	require.NotNil(t, second)
	require.NotSame(t, first, second, "each call should receive a freshly constructed handle")
	require.Equal(t, 0, pool.Len(), "the pool should not grow")
}

func TestPoolFallsBackOnMalformedToken(t *testing.T) {
	pool := NewPool()

	client := pool.GetClient("definitely-not-a-jwt")

	require.NotNil(t, client, "pool operations should never fail the caller")
	require.NotNil(t, client.HTTP)
	require.Equal(t, 0, pool.Len())
}

func TestPoolDoesNotGrowBeyondMaxSize(t *testing.T) {
	pool := NewPoolWithOpts(PoolOpts{MaxSize: 10})

	clients := make([]*Client, 0, 15)
	for i := 0; i < 15; i++ {
		clients = append(clients, pool.GetClient(makeToken(fmt.Sprintf("user-%d", i), time.Hour)))
	}

	require.Equal(t, 10, pool.Len())
	for _, c := range clients {
		require.NotNil(t, c, "overflow tokens still get working unpooled handles")
	}

	pool.Cleanup()
	require.Equal(t, 10, pool.Len())
}

func TestPoolCleanupEvictsIdleEntries(t *testing.T) {
	pool := NewPoolWithOpts(PoolOpts{TTL: time.Minute * 30})
	staleToken := makeToken("stale-user", time.Hour*24)
	freshToken := makeToken("fresh-user", time.Hour*24)
	pool.GetClient(staleToken)
	pool.GetClient(freshToken)

	backdateEntry(t, pool, staleToken, func(e *poolEntry) {
		e.lastUsed = time.Now().Add(-time.Minute * 31)
	})

	pool.Cleanup()

	require.Equal(t, 1, pool.Len())
	require.Same(t, pool.GetClient(freshToken), pool.GetClient(freshToken), "fresh entry should survive")
}

func TestPoolCleanupEvictsTooOldEntriesEvenIfRecentlyUsed(t *testing.T) {
	pool := NewPoolWithOpts(PoolOpts{TTL: time.Minute * 30})
	token := makeToken("user-1", time.Hour * 24)
	pool.GetClient(token)

	backdateEntry(t, pool, token, func(e *poolEntry) {
		e.createdAt = time.Now().Add(-time.Hour - time.Minute) // Older than 2*TTL.
		e.lastUsed = time.Now()
	})

	pool.Cleanup()

	require.Equal(t, 0, pool.Len())
}

func TestPoolCleanupTrimsLeastRecentlyUsedEntries(t *testing.T) {
	pool := NewPoolWithOpts(PoolOpts{MaxSize: 10})
	tokens := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		token := makeToken(fmt.Sprintf("user-%d", i), time.Hour)
		tokens = append(tokens, token)
		pool.GetClient(token)
	}

	// Touch the last three tokens so they become the most recently used.
	mru := tokens[7:]
	for _, token := range mru {
		pool.GetClient(token)
	}

	pool.mu.Lock()
	pool.maxSize = 3
	pool.mu.Unlock()

	pool.Cleanup()

	require.Equal(t, 3, pool.Len())
	for _, token := range mru {
		pool.mu.Lock()
		_, ok := pool.entries[xxhash.Sum64String(token)]
		pool.mu.Unlock()
		require.True(t, ok, "the most recently used entries should be retained")
	}
}

func TestPoolHitNeverMovesLastUsedBackwards(t *testing.T) {
	pool := NewPool()
	token := makeToken("user-1", time.Hour)
	pool.GetClient(token)

	// Simulate a hit that raced with a later one and holds an older timestamp.
	ahead := time.Now().Add(time.Hour)
	backdateEntry(t, pool, token, func(e *poolEntry) {
		e.lastUsed = ahead
	})

	pool.GetClient(token)

	pool.mu.Lock()
	lastUsed := pool.entries[xxhash.Sum64String(token)].Value.(*poolEntry).lastUsed
	pool.mu.Unlock()
	require.Equal(t, ahead, lastUsed, "lastUsed should be monotonically non-decreasing")
}

func TestPoolClear(t *testing.T) {
	pool := NewPool()
	for i := 0; i < 5; i++ {
		pool.GetClient(makeToken(fmt.Sprintf("user-%d", i), time.Hour))
	}
	require.Equal(t, 5, pool.Len())

	pool.Clear()
	require.Equal(t, 0, pool.Len())
}

func TestPoolUsesCustomClientFactory(t *testing.T) {
	var factoryCalls int
	pool := NewPoolWithOpts(PoolOpts{
		NewClient: func(token string, claims TokenClaims) *Client {
			factoryCalls++
			return NewClientWithOpts(token, claims, ClientOpts{Transport: http.DefaultTransport})
		},
	})
	token := makeToken("user-1", time.Hour)

	pool.GetClient(token)
	pool.GetClient(token)

	require.Equal(t, 1, factoryCalls, "the cached handle should be reused")
}

func backdateEntry(t *testing.T, pool *Pool, token string, mutate func(*poolEntry)) {
	t.Helper()
	pool.mu.Lock()
	defer pool.mu.Unlock()
	elem, ok := pool.entries[xxhash.Sum64String(token)]
	require.True(t, ok)
	mutate(elem.Value.(*poolEntry))
}

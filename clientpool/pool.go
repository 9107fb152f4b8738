/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

// Package clientpool provides a pool of per-user backend client handles keyed by bearer token.
// Pooling is a pure performance optimization: the pool never fails the caller,
// any problem with a token simply results in a fresh unpooled handle.
package clientpool

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/chorushub/go-clipkit/log"
)

// Default parameter values for Pool.
const (
	DefaultMaxSize         = 100
	DefaultTTL             = time.Minute * 30
	DefaultCleanupInterval = time.Minute * 5
	DefaultExpiryMargin    = time.Minute * 5
)

type poolEntry struct {
	key       uint64
	client    *Client
	createdAt time.Time
	lastUsed  time.Time
}

// Pool caches client handles keyed by a digest of the bearer token.
// Entries are evicted in the background when unused for longer than TTL,
// when older than twice the TTL, or when the pool outgrows its maximum size (least recently used first).
type Pool struct {
	maxSize      int
	ttl          time.Duration
	expiryMargin time.Duration

	newClient func(token string, claims TokenClaims) *Client

	mu      sync.Mutex
	lruList *list.List
	entries map[uint64]*list.Element // map of pool entries, value is a lruList element

	metricsCollector MetricsCollector
	logger           log.FieldLogger
}

// PoolOpts contains optional parameters for Pool.
type PoolOpts struct {
	// MaxSize bounds the number of pooled entries. DefaultMaxSize is used if zero.
	MaxSize int

	// TTL is the maximum idle time of a pooled entry. DefaultTTL is used if zero.
	// An entry is also evicted when it is older than 2*TTL regardless of use,
	// which protects against clock or usage anomalies keeping a stale entry alive.
	TTL time.Duration

	// ExpiryMargin is a safety margin for the token expiry check.
	// Tokens expiring within the margin are never pooled. DefaultExpiryMargin is used if zero.
	ExpiryMargin time.Duration

	// NewClient constructs a client handle. NewClient package function is used if nil.
	NewClient func(token string, claims TokenClaims) *Client

	// MetricsCollector is used to collect statistics about pool usage.
	// It can be nil, in this case, metrics will be disabled.
	MetricsCollector MetricsCollector

	// Logger is used for logging. It can be nil, in this case, logging will be disabled.
	Logger log.FieldLogger
}

// NewPool creates a new Pool with default options.
func NewPool() *Pool {
	return NewPoolWithOpts(PoolOpts{})
}

// NewPoolWithOpts creates a new Pool with the provided options.
func NewPoolWithOpts(opts PoolOpts) *Pool {
	if opts.MaxSize == 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if opts.ExpiryMargin == 0 {
		opts.ExpiryMargin = DefaultExpiryMargin
	}
	if opts.NewClient == nil {
		opts.NewClient = NewClient
	}
	if opts.MetricsCollector == nil {
		opts.MetricsCollector = disabledMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	return &Pool{
		maxSize:          opts.MaxSize,
		ttl:              opts.TTL,
		expiryMargin:     opts.ExpiryMargin,
		newClient:        opts.NewClient,
		lruList:          list.New(),
		entries:          make(map[uint64]*list.Element),
		metricsCollector: opts.MetricsCollector,
		logger:           opts.Logger,
	}
}

// GetClient returns a client handle for the given bearer token, reusing a pooled one when possible.
// A token that cannot be decoded or expires within the configured margin
// always yields a fresh unpooled handle, and the pool does not grow.
func (p *Pool) GetClient(token string) *Client {
	now := time.Now()

	claims, err := ParseTokenClaims(token)
	if err != nil || claims.ExpiresWithin(now, p.expiryMargin) {
		if err != nil {
			p.logger.Debug("client pool: token claims are not decodable, pooling bypassed", log.Error(err))
		}
		p.metricsCollector.IncBypasses()
		return p.newClient(token, claims)
	}

	key := xxhash.Sum64String(token)

	p.mu.Lock()
	if elem, ok := p.entries[key]; ok {
		entry := elem.Value.(*poolEntry)
		// The hit timestamp is taken under the lock and clamped, so two overlapping
		// hits on the same token cannot move lastUsed backwards.
		if hitTime := time.Now(); hitTime.After(entry.lastUsed) {
			entry.lastUsed = hitTime
		}
		p.lruList.MoveToFront(elem)
		p.mu.Unlock()
		p.metricsCollector.IncHits()
		return entry.client
	}
	p.mu.Unlock()

	// The client is constructed without holding the lock; when two goroutines race
	// on the same fresh token, the loser's handle stays unpooled, which is harmless.
	client := p.newClient(token, claims)

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.entries[key]; !ok && len(p.entries) < p.maxSize {
		p.entries[key] = p.lruList.PushFront(&poolEntry{key: key, client: client, createdAt: now, lastUsed: now})
		p.metricsCollector.IncMisses()
		p.metricsCollector.SetAmount(len(p.entries))
	} else {
		p.metricsCollector.IncBypasses()
	}
	return client
}

// Len returns the number of pooled entries.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Clear drops all pooled entries. It's supposed to be used at shutdown or in tests.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = make(map[uint64]*list.Element)
	p.lruList.Init()
	p.metricsCollector.SetAmount(0)
}

// Cleanup runs a single cleanup pass: evicts entries unused for longer than TTL
// or created more than 2*TTL ago, then evicts the least recently used entries
// until the pool does not exceed its maximum size.
func (p *Pool) Cleanup() {
	now := time.Now()

	p.mu.Lock()
	evicted := 0
	for key, elem := range p.entries {
		entry := elem.Value.(*poolEntry)
		if now.Sub(entry.lastUsed) > p.ttl || now.Sub(entry.createdAt) > p.ttl*2 {
			p.lruList.Remove(elem)
			delete(p.entries, key)
			evicted++
		}
	}
	for len(p.entries) > p.maxSize {
		elem := p.lruList.Back()
		if elem == nil {
			break
		}
		entry := elem.Value.(*poolEntry)
		p.lruList.Remove(elem)
		delete(p.entries, entry.key)
		evicted++
	}
	amount := len(p.entries)
	p.mu.Unlock()

	if evicted > 0 {
		p.metricsCollector.AddEvictions(evicted)
		p.logger.Debug("client pool: cleanup pass finished",
			log.Int("evicted", evicted), log.Int("left", amount))
	}
	p.metricsCollector.SetAmount(amount)
}

// RunPeriodicCleanup runs cleanup passes with the given interval until ctx is done.
// It's supposed to be run in a separate goroutine.
func (p *Pool) RunPeriodicCleanup(ctx context.Context, cleanupInterval time.Duration) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Cleanup()
		}
	}
}

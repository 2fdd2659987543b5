package cache

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/medisearch-pro/backend/internal/domain/providers"
)

// DefaultMemoryEntries bounds the in-process cache when Redis is disabled.
const DefaultMemoryEntries = 2048

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryAdapter is an in-process LRU used when Redis is not configured.
// Entries expire lazily on read.
type MemoryAdapter struct {
	lru *lru.Cache[string, memoryEntry]
	now func() time.Time
	mu  sync.Mutex // serialises Incr
}

// NewMemoryAdapter creates an LRU cache holding at most size entries
func NewMemoryAdapter(size int) (*MemoryAdapter, error) {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	c, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &MemoryAdapter{lru: c, now: time.Now}, nil
}

var (
	_ providers.CacheProvider = (*MemoryAdapter)(nil)
	_ providers.Counter       = (*MemoryAdapter)(nil)
)

func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := a.lru.Get(key)
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && !a.now().Before(entry.expiresAt) {
		a.lru.Remove(key)
		return nil, providers.ErrCacheMiss
	}
	return entry.value, nil
}

func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, expirationSeconds int) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if expirationSeconds > 0 {
		entry.expiresAt = a.now().Add(time.Duration(expirationSeconds) * time.Second)
	}
	a.lru.Add(key, entry)
	return nil
}

func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.lru.Remove(key)
	return nil
}

// DeletePattern accepts the same glob syntax as Redis SCAN MATCH for the
// patterns this service uses (`*` and `?`).
func (a *MemoryAdapter) DeletePattern(_ context.Context, pattern string) error {
	for _, key := range a.lru.Keys() {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return fmt.Errorf("invalid cache pattern %q: %w", pattern, err)
		}
		if matched {
			a.lru.Remove(key)
		}
	}
	return nil
}

func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	_, err := a.Get(ctx, key)
	return err == nil, nil
}

// Incr bumps a fixed-window counter stored as a decimal string.
func (a *MemoryAdapter) Incr(_ context.Context, key string, windowSeconds int) (int64, time.Duration, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	entry, ok := a.lru.Get(key)
	var count int64
	if ok && (entry.expiresAt.IsZero() || now.Before(entry.expiresAt)) {
		n, err := strconv.ParseInt(string(entry.value), 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("cache key %q does not hold a counter", key)
		}
		count = n
	} else {
		entry = memoryEntry{expiresAt: now.Add(time.Duration(windowSeconds) * time.Second)}
	}
	count++
	entry.value = []byte(strconv.FormatInt(count, 10))
	a.lru.Add(key, entry)

	var remaining time.Duration
	if !entry.expiresAt.IsZero() {
		remaining = entry.expiresAt.Sub(now)
	}
	return count, remaining, nil
}

// Len reports the number of live and not yet evicted entries.
func (a *MemoryAdapter) Len() int {
	return a.lru.Len()
}

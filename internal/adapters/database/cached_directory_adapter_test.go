package database

import (
	"context"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache { return &memoryCache{data: map[string][]byte{}} }

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *memoryCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

type countingMedicines struct {
	mu    sync.Mutex
	gets  int
	lists int
}

func (r *countingMedicines) GetByID(_ context.Context, id string) (*entities.Medicine, error) {
	r.mu.Lock()
	r.gets++
	r.mu.Unlock()
	return &entities.Medicine{ID: id, Name: "Aspirin"}, nil
}

func (r *countingMedicines) List(_ context.Context, _ repositories.DirectoryFilter) ([]*entities.Medicine, int, error) {
	r.mu.Lock()
	r.lists++
	r.mu.Unlock()
	return []*entities.Medicine{{ID: "med-1", Name: "Aspirin"}}, 7, nil
}

func TestCachedMedicineRepository_ReadThrough(t *testing.T) {
	cache := newMemoryCache()
	inner := &countingMedicines{}
	repo := NewCachedMedicineRepository(inner, cache)
	ctx := context.Background()

	got, err := repo.GetByID(ctx, "med-1")
	require.NoError(t, err)
	assert.Equal(t, "Aspirin", got.Name)

	assert.Eventually(t, func() bool {
		ok, _ := cache.Exists(ctx, directoryItemCacheKey(entities.DirectoryMedicines, "med-1"))
		return ok
	}, time.Second, 5*time.Millisecond)

	got, err = repo.GetByID(ctx, "med-1")
	require.NoError(t, err)
	assert.Equal(t, "med-1", got.ID)
	assert.Equal(t, 1, inner.gets)
}

func TestCachedMedicineRepository_ListKeepsTotal(t *testing.T) {
	cache := newMemoryCache()
	inner := &countingMedicines{}
	repo := NewCachedMedicineRepository(inner, cache)
	ctx := context.Background()
	filter := repositories.DirectoryFilter{Query: "  ASP ", Limit: 10}

	_, total, err := repo.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 7, total)

	assert.Eventually(t, func() bool { return cache.len() == 1 }, time.Second, 5*time.Millisecond)

	items, total, err := repo.List(ctx, repositories.DirectoryFilter{Query: "asp", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, inner.lists)

	require.NoError(t, InvalidateDirectoryCache(ctx, cache))
	assert.Zero(t, cache.len())
}

package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
	"github.com/medisearch-pro/backend/pkg/utils"
)

// Cache TTLs (in seconds)
const (
	directoryByIDTTL = 600 // 10 minutes for a single record
	directoryListTTL = 180 // 3 minutes for lists and searches
)

// Cache key generators
func directoryItemCacheKey(kind entities.DirectoryKind, id string) string {
	return fmt.Sprintf("directory:%s:id:%s", kind, id)
}

func directoryListCacheKey(kind entities.DirectoryKind, filter repositories.DirectoryFilter) string {
	return fmt.Sprintf("directory:%s:list:%s:%d:%d", kind, utils.NormalizeQuery(filter.Query), filter.Limit, filter.Offset)
}

type cachedPage[T any] struct {
	Items []*T `json:"items"`
	Total int  `json:"total"`
}

type cachedDirectory[T any] struct {
	kind  entities.DirectoryKind
	cache providers.CacheProvider
	get   func(ctx context.Context, id string) (*T, error)
	list  func(ctx context.Context, filter repositories.DirectoryFilter) ([]*T, int, error)
}

func (c *cachedDirectory[T]) GetByID(ctx context.Context, id string) (*T, error) {
	cacheKey := directoryItemCacheKey(c.kind, id)

	if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
		var item T
		if err := json.Unmarshal(cached, &item); err == nil {
			return &item, nil
		}
		log.Warn().Err(err).Str("key", cacheKey).Msg("Failed to unmarshal cached directory item")
	}

	item, err := c.get(ctx, id)
	if err != nil {
		return nil, err
	}

	c.setAsync(cacheKey, item, directoryByIDTTL)
	return item, nil
}

func (c *cachedDirectory[T]) List(ctx context.Context, filter repositories.DirectoryFilter) ([]*T, int, error) {
	cacheKey := directoryListCacheKey(c.kind, filter)

	if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
		var page cachedPage[T]
		if err := json.Unmarshal(cached, &page); err == nil {
			return page.Items, page.Total, nil
		}
		log.Warn().Err(err).Str("key", cacheKey).Msg("Failed to unmarshal cached directory list")
	}

	items, total, err := c.list(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	c.setAsync(cacheKey, cachedPage[T]{Items: items, Total: total}, directoryListTTL)
	return items, total, nil
}

// setAsync updates the cache without blocking the response.
func (c *cachedDirectory[T]) setAsync(key string, value interface{}, ttl int) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	go func() {
		if err := c.cache.Set(context.Background(), key, data, ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to cache directory data")
		}
	}()
}

// NewCachedMedicineRepository wraps repo with a read-through cache
func NewCachedMedicineRepository(repo repositories.MedicineRepository, cache providers.CacheProvider) repositories.MedicineRepository {
	return &cachedDirectory[entities.Medicine]{
		kind: entities.DirectoryMedicines, cache: cache, get: repo.GetByID, list: repo.List,
	}
}

// NewCachedDoctorRepository wraps repo with a read-through cache
func NewCachedDoctorRepository(repo repositories.DoctorRepository, cache providers.CacheProvider) repositories.DoctorRepository {
	return &cachedDirectory[entities.Doctor]{
		kind: entities.DirectoryDoctors, cache: cache, get: repo.GetByID, list: repo.List,
	}
}

// NewCachedHospitalRepository wraps repo with a read-through cache
func NewCachedHospitalRepository(repo repositories.HospitalRepository, cache providers.CacheProvider) repositories.HospitalRepository {
	return &cachedDirectory[entities.Hospital]{
		kind: entities.DirectoryHospitals, cache: cache, get: repo.GetByID, list: repo.List,
	}
}

// InvalidateDirectoryCache drops every cached directory page and record.
func InvalidateDirectoryCache(ctx context.Context, cache providers.CacheProvider) error {
	return cache.DeletePattern(ctx, providers.DirectoryCachePattern)
}

package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medisearch-pro/backend/internal/adapters/cache"
	"github.com/medisearch-pro/backend/internal/application/services"
	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
)

func TestCacheWarmingService_WarmCache(t *testing.T) {
	f := newDirectoryFixture()
	memory, err := cache.NewMemoryAdapter(16)
	require.NoError(t, err)

	f.analytics.On("GetPopularQueries", mock.Anything, mock.Anything, 20).Return([]*entities.PopularQuery{
		{NormalizedQuery: "ibuprofen", Directory: entities.DirectoryMedicines, Count: 9},
		{NormalizedQuery: "heart", Directory: entities.DirectoryAll, Count: 4},
		{NormalizedQuery: "", Directory: entities.DirectoryDoctors, Count: 1},
	}, nil)

	f.medicines.On("List", mock.Anything, repositories.DirectoryFilter{}).Return([]*entities.Medicine{}, 0, nil).Once()
	f.medicines.On("List", mock.Anything, repositories.DirectoryFilter{Query: "ibuprofen"}).Return([]*entities.Medicine{}, 0, nil).Once()
	searchAll := repositories.DirectoryFilter{Query: "heart", Limit: services.DefaultSearchPerDirectory}
	f.medicines.On("List", mock.Anything, searchAll).Return([]*entities.Medicine{}, 0, nil).Once()
	f.doctors.On("List", mock.Anything, repositories.DirectoryFilter{}).Return([]*entities.Doctor{}, 0, nil).Once()
	f.doctors.On("List", mock.Anything, searchAll).Return([]*entities.Doctor{}, 0, nil).Once()
	f.hospitals.On("List", mock.Anything, repositories.DirectoryFilter{}).Return(nil, 0, errors.New("db down")).Once()
	f.hospitals.On("List", mock.Anything, searchAll).Return([]*entities.Hospital{}, 0, nil).Once()

	warmer := services.NewCacheWarmingService(f.medicines, f.doctors, f.hospitals, f.tracker, memory)
	warmed, err := warmer.WarmCache(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 6, warmed)
	f.medicines.AssertExpectations(t)
	f.doctors.AssertExpectations(t)
	f.hospitals.AssertExpectations(t)
}

func TestCacheWarmingService_InvalidateCache(t *testing.T) {
	ctx := context.Background()
	memory, err := cache.NewMemoryAdapter(16)
	require.NoError(t, err)
	require.NoError(t, memory.Set(ctx, "directory:medicines:id:med-1", []byte("{}"), 60))
	require.NoError(t, memory.Set(ctx, "feedback:rate:1.2.3.4", []byte("1"), 60))

	f := newDirectoryFixture()
	warmer := services.NewCacheWarmingService(f.medicines, f.doctors, f.hospitals, nil, memory)
	require.NoError(t, warmer.InvalidateCache(ctx))

	ok, err := memory.Exists(ctx, "directory:medicines:id:med-1")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = memory.Exists(ctx, "feedback:rate:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
}

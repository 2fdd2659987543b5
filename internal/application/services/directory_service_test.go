package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medisearch-pro/backend/internal/application/services"
	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
)

type directoryFixture struct {
	medicines *MockMedicineRepository
	doctors   *MockDoctorRepository
	hospitals *MockHospitalRepository
	analytics *MockSearchAnalyticsRepository
	tracker   *services.SearchAnalyticsService
	service   *services.DirectoryService
}

func newDirectoryFixture() *directoryFixture {
	f := &directoryFixture{
		medicines: new(MockMedicineRepository),
		doctors:   new(MockDoctorRepository),
		hospitals: new(MockHospitalRepository),
		analytics: new(MockSearchAnalyticsRepository),
	}
	f.tracker = services.NewSearchAnalyticsService(f.analytics)
	f.service = services.NewDirectoryService(f.medicines, f.doctors, f.hospitals, f.tracker)
	return f
}

func TestDirectoryService_ListMedicines(t *testing.T) {
	t.Run("normalises query and tracks the search", func(t *testing.T) {
		f := newDirectoryFixture()
		para := &entities.Medicine{ID: "med-1", Name: "Paracetamol"}
		f.medicines.On("List", mock.Anything, repositories.DirectoryFilter{Query: "para cet", Limit: 5}).
			Return([]*entities.Medicine{para}, 1, nil)
		f.analytics.On("LogEvent", mock.Anything, mock.MatchedBy(func(e *entities.SearchEvent) bool {
			return e.Query == "Para   CET" && e.NormalizedQuery == "para cet" &&
				e.Directory == entities.DirectoryMedicines && e.ResultCount == 1 && e.Source == services.SourceCatalog
		})).Return(nil)

		items, total, err := f.service.ListMedicines(context.Background(), repositories.DirectoryFilter{Query: "  Para   CET ", Limit: 5})
		f.tracker.Wait()

		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, []*entities.Medicine{para}, items)
		f.analytics.AssertExpectations(t)
	})

	t.Run("empty query is not tracked", func(t *testing.T) {
		f := newDirectoryFixture()
		f.medicines.On("List", mock.Anything, repositories.DirectoryFilter{}).Return([]*entities.Medicine{}, 0, nil)

		_, _, err := f.service.ListMedicines(context.Background(), repositories.DirectoryFilter{Query: "   "})
		f.tracker.Wait()

		require.NoError(t, err)
		f.analytics.AssertNotCalled(t, "LogEvent", mock.Anything, mock.Anything)
	})

	t.Run("analytics failure does not fail the request", func(t *testing.T) {
		f := newDirectoryFixture()
		f.doctors.On("List", mock.Anything, mock.Anything).Return([]*entities.Doctor{}, 0, nil)
		f.analytics.On("LogEvent", mock.Anything, mock.Anything).Return(errors.New("db down"))

		_, _, err := f.service.ListDoctors(context.Background(), repositories.DirectoryFilter{Query: "cardio"})
		f.tracker.Wait()

		assert.NoError(t, err)
	})

	t.Run("negative pagination is rejected", func(t *testing.T) {
		f := newDirectoryFixture()
		_, _, err := f.service.ListHospitals(context.Background(), repositories.DirectoryFilter{Offset: -1})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestDirectoryService_Get(t *testing.T) {
	f := newDirectoryFixture()
	f.doctors.On("GetByID", mock.Anything, "doc-404").Return(nil, apperrors.NewNotFoundError("doctor not found"))

	_, err := f.service.GetDoctor(context.Background(), "doc-404")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.service.GetMedicine(context.Background(), "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestDirectoryService_SearchAll(t *testing.T) {
	t.Run("fans out to the repositories", func(t *testing.T) {
		f := newDirectoryFixture()
		filter := repositories.DirectoryFilter{Query: "heart", Limit: services.DefaultSearchPerDirectory}
		f.medicines.On("List", mock.Anything, filter).Return([]*entities.Medicine{}, 0, nil)
		f.doctors.On("List", mock.Anything, filter).Return([]*entities.Doctor{{ID: "doc-1"}}, 3, nil)
		f.hospitals.On("List", mock.Anything, filter).Return([]*entities.Hospital{{ID: "hos-1"}}, 1, nil)
		f.analytics.On("LogEvent", mock.Anything, mock.MatchedBy(func(e *entities.SearchEvent) bool {
			return e.Directory == entities.DirectoryAll && e.ResultCount == 4
		})).Return(nil)

		res, err := f.service.SearchAll(context.Background(), "Heart", 0)
		f.tracker.Wait()

		require.NoError(t, err)
		assert.Equal(t, "heart", res.Query)
		assert.Equal(t, services.SourceCatalog, res.Source)
		assert.Equal(t, 3, res.TotalDoctors)
		assert.Equal(t, 4, res.Total())
		f.analytics.AssertExpectations(t)
	})

	t.Run("uses the index when it answers", func(t *testing.T) {
		f := newDirectoryFixture()
		index := new(MockDirectoryIndex)
		f.service.WithIndex(index)
		index.On("Search", mock.Anything, "heart", 5).Return(&entities.DirectorySearchResult{
			TotalHospitals: 2, Source: "typesense",
		}, nil)
		f.analytics.On("LogEvent", mock.Anything, mock.MatchedBy(func(e *entities.SearchEvent) bool {
			return e.Source == "typesense"
		})).Return(nil)

		res, err := f.service.SearchAll(context.Background(), "heart", 5)
		f.tracker.Wait()

		require.NoError(t, err)
		assert.Equal(t, "typesense", res.Source)
		f.medicines.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("falls back when the index fails", func(t *testing.T) {
		f := newDirectoryFixture()
		index := new(MockDirectoryIndex)
		f.service.WithIndex(index)
		index.On("Search", mock.Anything, "", services.MaxSearchPerDirectory).Return(nil, errors.New("connection refused"))
		f.medicines.On("List", mock.Anything, mock.Anything).Return([]*entities.Medicine{{ID: "med-1"}}, 1, nil)
		f.doctors.On("List", mock.Anything, mock.Anything).Return([]*entities.Doctor{}, 0, nil)
		f.hospitals.On("List", mock.Anything, mock.Anything).Return([]*entities.Hospital{}, 0, nil)

		res, err := f.service.SearchAll(context.Background(), "", 500)
		f.tracker.Wait()

		require.NoError(t, err)
		assert.Equal(t, services.SourceCatalog, res.Source)
		assert.Equal(t, 1, res.TotalMedicines)
		f.analytics.AssertNotCalled(t, "LogEvent", mock.Anything, mock.Anything)
	})

	t.Run("repository error fails the search", func(t *testing.T) {
		f := newDirectoryFixture()
		f.medicines.On("List", mock.Anything, mock.Anything).Return([]*entities.Medicine{}, 0, nil)
		f.doctors.On("List", mock.Anything, mock.Anything).Return(nil, 0, apperrors.NewInternalError("failed to list doctors", errors.New("db")))
		f.hospitals.On("List", mock.Anything, mock.Anything).Return([]*entities.Hospital{}, 0, nil)

		_, err := f.service.SearchAll(context.Background(), "x", 1)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	})
}

package database

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
)

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%ibuprofen%", likePattern(" ibuprofen "))
	assert.Equal(t, `%50\% off\_x%`, likePattern("50% off_x"))
	assert.Equal(t, `%a\\b%`, likePattern(`a\b`))
}

func TestCatalogAdapter_MedicineList(t *testing.T) {
	client, mock := setupMockDB(t, "postgres")
	medicines := NewCatalogAdapter(client).Medicines()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "medicines" WHERE (("name" ILIKE $1) OR ("generic_name" ILIKE $2))`)).
		WithArgs("%ibu%", "%ibu%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "medicines" WHERE`) + `.*` + regexp.QuoteMeta(`ORDER BY "name" ASC LIMIT $3 OFFSET $4`)).
		WithArgs("%ibu%", "%ibu%", 1, 2).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "generic_name", "description", "uses", "side_effects", "dosages", "interactions", "data_source",
		}).AddRow("med-1", "Ibuprofen", "ibuprofen", "NSAID", "{pain,fever}", "{nausea}", "200mg", "", "sample"))

	items, total, err := medicines.List(context.Background(), repositories.DirectoryFilter{Query: "ibu", Limit: 1, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"pain", "fever"}, items[0].Uses)
	assert.Equal(t, entities.DataSourceSample, items[0].DataSource)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogAdapter_DoctorListWithoutQuery(t *testing.T) {
	client, mock := setupMockDB(t, "postgres")
	doctors := NewCatalogAdapter(client).Doctors()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "doctors"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "doctors" ORDER BY "name" ASC`)).
		WillReturnRows(sqlmock.NewRows(nil))

	items, total, err := doctors.List(context.Background(), repositories.DirectoryFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestCatalogAdapter_HospitalNotFound(t *testing.T) {
	client, mock := setupMockDB(t, "postgres")
	hospitals := NewCatalogAdapter(client).Hospitals()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "hospitals" WHERE ("id" = $1)`)).
		WithArgs("hos-404").
		WillReturnRows(sqlmock.NewRows(nil))

	_, err := hospitals.GetByID(context.Background(), "hos-404")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCatalogAdapter_UpsertDoctors(t *testing.T) {
	client, mock := setupMockDB(t, "postgres")
	adapter := NewCatalogAdapter(client)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "doctors"`) + `.*` + regexp.QuoteMeta(`ON CONFLICT (id) DO UPDATE SET`)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := adapter.UpsertDoctors(context.Background(), []*entities.Doctor{
		{ID: "doc-1", Name: "Dr. One", Qualifications: []string{"MD"}},
		{ID: "doc-2", Name: "Dr. Two"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogAdapter_UpsertEmptyIsNoop(t *testing.T) {
	client, mock := setupMockDB(t, "postgres")
	adapter := NewCatalogAdapter(client)

	require.NoError(t, adapter.UpsertHospitals(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

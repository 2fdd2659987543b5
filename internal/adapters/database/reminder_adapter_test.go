package database

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
)

type mockClient struct {
	db      *sql.DB
	dialect string
}

func (m *mockClient) DB() *sql.DB      { return m.db }
func (m *mockClient) Dialect() string { return m.dialect }

func setupMockDB(t *testing.T, dialect string) (*mockClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock database")
	t.Cleanup(func() { db.Close() })
	return &mockClient{db: db, dialect: dialect}, mock
}

var reminderRowColumns = []string{"id", "doctor_name", "checkup_date", "notes", "notified_at", "created_at", "updated_at"}

func TestReminderAdapter_Create(t *testing.T) {
	client, mock := setupMockDB(t, "postgres")
	adapter := NewReminderAdapter(client)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	reminder := &entities.Reminder{
		ID:          "rem-1",
		DoctorName:  "Dr. Rivera",
		CheckupDate: now.AddDate(0, 0, 7),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "reminders"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, adapter.Create(context.Background(), reminder))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderAdapter_CreateUsesSQLiteDialect(t *testing.T) {
	client, mock := setupMockDB(t, "sqlite3")
	adapter := NewReminderAdapter(client)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `reminders`") + `.*VALUES \(\?`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Create(context.Background(), &entities.Reminder{ID: "rem-1", DoctorName: "Dr. Rivera"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderAdapter_GetByID(t *testing.T) {
	client, mock := setupMockDB(t, "postgres")
	adapter := NewReminderAdapter(client)

	checkup := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	notified := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(reminderRowColumns).
		AddRow("rem-1", "Dr. Rivera", checkup, "bring results", notified, checkup, checkup)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "reminders" WHERE ("id" = $1)`)).
		WithArgs("rem-1").
		WillReturnRows(rows)

	got, err := adapter.GetByID(context.Background(), "rem-1")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Rivera", got.DoctorName)
	assert.Equal(t, "bring results", got.Notes)
	require.NotNil(t, got.NotifiedAt)
	assert.True(t, notified.Equal(*got.NotifiedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderAdapter_GetByIDNotFound(t *testing.T) {
	client, mock := setupMockDB(t, "postgres")
	adapter := NewReminderAdapter(client)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "reminders"`)).
		WillReturnRows(sqlmock.NewRows(reminderRowColumns))

	_, err := adapter.GetByID(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestReminderAdapter_ListOrdersByCheckupDate(t *testing.T) {
	client, mock := setupMockDB(t, "postgres")
	adapter := NewReminderAdapter(client)

	d := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(reminderRowColumns).
		AddRow("a", "Dr. A", d, nil, nil, d, d).
		AddRow("b", "Dr. B", d.AddDate(0, 0, 1), "", nil, d, d)

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY "checkup_date" ASC`)).WillReturnRows(rows)

	got, err := adapter.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Empty(t, got[0].Notes)
	assert.Nil(t, got[0].NotifiedAt)
}

func TestReminderAdapter_UpdateMissingRow(t *testing.T) {
	client, mock := setupMockDB(t, "postgres")
	adapter := NewReminderAdapter(client)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "reminders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := adapter.Update(context.Background(), &entities.Reminder{ID: "gone", DoctorName: "Dr. X"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestReminderAdapter_Delete(t *testing.T) {
	client, mock := setupMockDB(t, "postgres")
	adapter := NewReminderAdapter(client)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "reminders" WHERE ("id" = $1)`)).
		WithArgs("rem-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "reminders"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, adapter.Delete(context.Background(), "rem-1"))
	assert.True(t, apperrors.IsNotFound(adapter.Delete(context.Background(), "rem-1")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderAdapter_ListDueSkipsNotified(t *testing.T) {
	client, mock := setupMockDB(t, "postgres")
	adapter := NewReminderAdapter(client)

	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`("notified_at" IS NULL)`)).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows(reminderRowColumns).AddRow("due", "Dr. D", from.Add(time.Hour), nil, nil, from, from))

	got, err := adapter.ListDue(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "due", got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderAdapter_MarkNotified(t *testing.T) {
	client, mock := setupMockDB(t, "postgres")
	adapter := NewReminderAdapter(client)

	at := time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "reminders" SET "notified_at"=$1 WHERE ("id" = $2)`)).
		WithArgs(at, "rem-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, adapter.MarkNotified(context.Background(), "rem-1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

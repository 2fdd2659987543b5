package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
)

const remindersTable = "reminders"

var reminderColumns = []interface{}{
	"id", "doctor_name", "checkup_date", "notes", "notified_at", "created_at", "updated_at",
}

// ReminderAdapter implements the ReminderRepository interface
type ReminderAdapter struct {
	client SQLClient
	db     *goqu.Database
}

// NewReminderAdapter creates a new reminder adapter
func NewReminderAdapter(client SQLClient) repositories.ReminderRepository {
	return &ReminderAdapter{
		client: client,
		db:     newQueryBuilder(client),
	}
}

// Create creates a new reminder
func (a *ReminderAdapter) Create(ctx context.Context, reminder *entities.Reminder) error {
	record := goqu.Record{
		"id":           reminder.ID,
		"doctor_name":  reminder.DoctorName,
		"checkup_date": reminder.CheckupDate.UTC(),
		"notes":        nullString(reminder.Notes),
		"notified_at":  nullTime(reminder.NotifiedAt),
		"created_at":   reminder.CreatedAt.UTC(),
		"updated_at":   reminder.UpdatedAt.UTC(),
	}

	query, args, err := a.db.Insert(remindersTable).Prepared(true).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create reminder", err)
	}
	return nil
}

// GetByID retrieves a reminder by ID
func (a *ReminderAdapter) GetByID(ctx context.Context, id string) (*entities.Reminder, error) {
	query, args, err := a.db.Select(reminderColumns...).
		From(remindersTable).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	reminder, err := scanReminder(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("reminder with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get reminder", err)
	}
	return reminder, nil
}

// List returns all reminders, soonest checkup first
func (a *ReminderAdapter) List(ctx context.Context) ([]*entities.Reminder, error) {
	query, args, err := a.db.Select(reminderColumns...).
		From(remindersTable).
		Order(goqu.I("checkup_date").Asc(), goqu.I("created_at").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.query(ctx, query, args, "failed to list reminders")
}

// Update updates the editable fields of a reminder
func (a *ReminderAdapter) Update(ctx context.Context, reminder *entities.Reminder) error {
	record := goqu.Record{
		"doctor_name":  reminder.DoctorName,
		"checkup_date": reminder.CheckupDate.UTC(),
		"notes":        nullString(reminder.Notes),
		"notified_at":  nullTime(reminder.NotifiedAt),
		"updated_at":   reminder.UpdatedAt.UTC(),
	}

	query, args, err := a.db.Update(remindersTable).
		Set(record).
		Where(goqu.Ex{"id": reminder.ID}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update reminder", err)
	}
	return expectAffected(result, fmt.Sprintf("reminder with id %s not found", reminder.ID))
}

// Delete removes a reminder
func (a *ReminderAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete(remindersTable).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete reminder", err)
	}
	return expectAffected(result, fmt.Sprintf("reminder with id %s not found", id))
}

// ListDue returns reminders in [from, to] that have not been notified yet
func (a *ReminderAdapter) ListDue(ctx context.Context, from, to time.Time) ([]*entities.Reminder, error) {
	query, args, err := a.db.Select(reminderColumns...).
		From(remindersTable).
		Where(
			goqu.C("checkup_date").Gte(from.UTC()),
			goqu.C("checkup_date").Lte(to.UTC()),
			goqu.C("notified_at").IsNull(),
		).
		Order(goqu.I("checkup_date").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.query(ctx, query, args, "failed to list due reminders")
}

// MarkNotified stamps the reminder so the notifier does not send it twice
func (a *ReminderAdapter) MarkNotified(ctx context.Context, id string, at time.Time) error {
	query, args, err := a.db.Update(remindersTable).
		Set(goqu.Record{"notified_at": at.UTC()}).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to mark reminder notified", err)
	}
	return expectAffected(result, fmt.Sprintf("reminder with id %s not found", id))
}

func (a *ReminderAdapter) query(ctx context.Context, query string, args []interface{}, failMsg string) ([]*entities.Reminder, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError(failMsg, err)
	}
	defer rows.Close()

	reminders := make([]*entities.Reminder, 0)
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan reminder", err)
		}
		reminders = append(reminders, reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError(failMsg, err)
	}
	return reminders, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReminder(row rowScanner) (*entities.Reminder, error) {
	reminder := &entities.Reminder{}
	var notes sql.NullString
	var notifiedAt sql.NullTime

	err := row.Scan(
		&reminder.ID,
		&reminder.DoctorName,
		&reminder.CheckupDate,
		&notes,
		&notifiedAt,
		&reminder.CreatedAt,
		&reminder.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	reminder.Notes = notes.String
	if notifiedAt.Valid {
		t := notifiedAt.Time
		reminder.NotifiedAt = &t
	}
	return reminder, nil
}

func expectAffected(result sql.Result, notFoundMsg string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(notFoundMsg)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

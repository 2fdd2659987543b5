package repositories

import (
	"context"
	"time"

	"github.com/medisearch-pro/backend/internal/domain/entities"
)

// ReminderRepository defines the interface for reminder persistence
type ReminderRepository interface {
	Create(ctx context.Context, reminder *entities.Reminder) error
	GetByID(ctx context.Context, id string) (*entities.Reminder, error)
	// List returns every reminder ordered by checkup date ascending.
	List(ctx context.Context) ([]*entities.Reminder, error)
	Update(ctx context.Context, reminder *entities.Reminder) error
	Delete(ctx context.Context, id string) error
	// ListDue returns reminders with checkup_date in [from, to] that were never notified.
	ListDue(ctx context.Context, from, to time.Time) ([]*entities.Reminder, error)
	MarkNotified(ctx context.Context, id string, at time.Time) error
}

package providers

import (
	"context"

	"github.com/medisearch-pro/backend/internal/domain/entities"
)

// ReminderSender delivers a due-reminder message on one channel.
type ReminderSender interface {
	Channel() string
	SendReminder(ctx context.Context, reminder *entities.Reminder, message string) error
}

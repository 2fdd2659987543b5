package providers

import (
	"context"

	"github.com/medisearch-pro/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ReminderEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ReminderEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelReminderUpdates carries every reminder event
	EventChannelReminderUpdates = "reminders:updates"

	// EventChannelReminderPrefix is the prefix for reminder-specific channels
	EventChannelReminderPrefix = "reminder:"
)

// GetReminderChannel returns the channel name for a specific reminder
func GetReminderChannel(reminderID string) string {
	return EventChannelReminderPrefix + reminderID
}

package entities

import (
	"time"

	"github.com/google/uuid"
)

// ReminderEventType represents the type of reminder event
type ReminderEventType string

const (
	ReminderEventCreated ReminderEventType = "reminder_created"
	ReminderEventUpdated ReminderEventType = "reminder_updated"
	ReminderEventDeleted ReminderEventType = "reminder_deleted"
	ReminderEventDue     ReminderEventType = "reminder_due"
)

// ReminderEvent is published whenever a reminder changes or comes due.
type ReminderEvent struct {
	ID         string            `json:"id"`
	ReminderID string            `json:"reminder_id"`
	EventType  ReminderEventType `json:"event_type"`
	Timestamp  time.Time         `json:"timestamp"`
	Reminder   *Reminder         `json:"reminder,omitempty"`
}

// NewReminderEvent creates a new reminder event
func NewReminderEvent(eventType ReminderEventType, reminderID string, reminder *Reminder) *ReminderEvent {
	return &ReminderEvent{
		ID:         uuid.NewString(),
		ReminderID: reminderID,
		EventType:  eventType,
		Timestamp:  time.Now().UTC(),
		Reminder:   reminder,
	}
}

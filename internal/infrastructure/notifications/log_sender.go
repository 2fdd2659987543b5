package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/pkg/config"
)

// LogSender writes reminders to the log. It is the fallback when no
// messaging channel is configured.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (l *LogSender) Channel() string { return "log" }

func (l *LogSender) SendReminder(_ context.Context, reminder *entities.Reminder, message string) error {
	l.logger.Info().
		Str("reminder_id", reminder.ID).
		Str("doctor", reminder.DoctorName).
		Time("checkup_date", reminder.CheckupDate).
		Msg(message)
	return nil
}

// ReminderMessage is the text sent for a due reminder.
func ReminderMessage(r *entities.Reminder, now time.Time) string {
	when := r.CheckupDate.In(now.Location()).Format("Mon, Jan 2 2006")
	var msg string
	switch days := r.DaysUntil(now); {
	case days <= 0:
		msg = fmt.Sprintf("Reminder: your checkup with %s is today (%s).", r.DoctorName, when)
	case days == 1:
		msg = fmt.Sprintf("Reminder: your checkup with %s is tomorrow (%s).", r.DoctorName, when)
	default:
		msg = fmt.Sprintf("Reminder: your checkup with %s is in %d days (%s).", r.DoctorName, days, when)
	}
	if r.Notes != "" {
		msg += " Notes: " + r.Notes
	}
	return msg
}

// BuildSenders returns every channel that has credentials, or the log
// sender when none do.
func BuildSenders(cfg *config.NotificationConfig, logger zerolog.Logger) []providers.ReminderSender {
	var senders []providers.ReminderSender
	if wa, err := NewWhatsAppCloudSender(cfg); err == nil {
		senders = append(senders, wa)
	}
	if tg, err := NewTelegramSender(cfg); err == nil {
		senders = append(senders, tg)
	}
	if len(senders) == 0 {
		logger.Info().Msg("No messaging channel configured, reminders will be logged")
		senders = append(senders, NewLogSender(logger))
	}
	return senders
}

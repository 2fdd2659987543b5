package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
	"github.com/medisearch-pro/backend/internal/infrastructure/notifications"
	"github.com/medisearch-pro/backend/internal/infrastructure/observability"
	"github.com/medisearch-pro/backend/pkg/config"
)

const sendTimeout = 15 * time.Second

// ReminderNotifier periodically sends a message for every reminder whose
// checkup falls within the lead window and was not notified yet.
type ReminderNotifier struct {
	repo     repositories.ReminderRepository
	senders  []providers.ReminderSender
	eventBus providers.EventBus
	metrics  *observability.Metrics
	interval time.Duration
	lead     time.Duration
	loc      *time.Location
	now      func() time.Time
}

// NewReminderNotifier creates a notifier. eventBus and metrics may be nil.
func NewReminderNotifier(
	repo repositories.ReminderRepository,
	senders []providers.ReminderSender,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
	cfg config.ReminderConfig,
) *ReminderNotifier {
	interval := cfg.NotifyInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderNotifier{
		repo:     repo,
		senders:  senders,
		eventBus: eventBus,
		metrics:  metrics,
		interval: interval,
		lead:     cfg.NotifyLead,
		loc:      loc,
		now:      time.Now,
	}
}

// WithClock replaces time.Now and the zone the due window starts in.
func (n *ReminderNotifier) WithClock(now func() time.Time, loc *time.Location) *ReminderNotifier {
	n.now = now
	if loc != nil {
		n.loc = loc
	}
	return n
}

// Run checks for due reminders immediately and then on every tick until
// ctx is cancelled.
func (n *ReminderNotifier) Run(ctx context.Context) {
	log.Info().Dur("interval", n.interval).Dur("lead", n.lead).Int("senders", len(n.senders)).Msg("Reminder notifier started")

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		if _, err := n.NotifyDue(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Reminder notification pass failed")
		}
		select {
		case <-ctx.Done():
			log.Info().Msg("Reminder notifier stopped")
			return
		case <-ticker.C:
		}
	}
}

// NotifyDue runs one pass and returns how many reminders were notified.
// A reminder is marked notified once at least one sender accepted it;
// otherwise it is retried on the next pass.
func (n *ReminderNotifier) NotifyDue(ctx context.Context) (int, error) {
	now := n.now().In(n.loc)
	y, m, d := now.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, n.loc)

	due, err := n.repo.ListDue(ctx, from.UTC(), now.Add(n.lead).UTC())
	if err != nil {
		return 0, err
	}

	notified := 0
	for _, r := range due {
		if ctx.Err() != nil {
			return notified, ctx.Err()
		}
		if !n.send(ctx, r, notifications.ReminderMessage(r, now)) {
			continue
		}

		at := now.UTC()
		if err := n.repo.MarkNotified(ctx, r.ID, at); err != nil {
			log.Error().Err(err).Str("reminder_id", r.ID).Msg("Failed to mark reminder notified")
			continue
		}
		r.NotifiedAt = &at
		notified++
		n.publishDue(ctx, r)
	}
	if notified > 0 {
		log.Info().Int("count", notified).Msg("Sent due reminder notifications")
	}
	return notified, nil
}

func (n *ReminderNotifier) send(ctx context.Context, r *entities.Reminder, message string) bool {
	delivered := false
	for _, sender := range n.senders {
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		err := sender.SendReminder(sendCtx, r, message)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("channel", sender.Channel()).Str("reminder_id", r.ID).Msg("Failed to send reminder")
			continue
		}
		delivered = true
		observability.RecordReminderNotified(ctx, n.metrics, sender.Channel())
	}
	return delivered
}

func (n *ReminderNotifier) publishDue(ctx context.Context, r *entities.Reminder) {
	if n.eventBus == nil {
		return
	}
	event := entities.NewReminderEvent(entities.ReminderEventDue, r.ID, r)
	for _, channel := range []string{providers.EventChannelReminderUpdates, providers.GetReminderChannel(r.ID)} {
		if err := n.eventBus.Publish(ctx, channel, event); err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("Failed to publish reminder due event")
		}
	}
}

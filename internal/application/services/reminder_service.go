package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
)

const (
	MsgDoctorNameRequired  = "Doctor name is required."
	MsgCheckupDateRequired = "Checkup date is required."
	MsgCheckupDateInvalid  = "Checkup date must be a date (YYYY-MM-DD) or an RFC 3339 timestamp."

	checkupDateLayout = "2006-01-02"
)

// ReminderService handles checkup reminder business logic
type ReminderService struct {
	repo     repositories.ReminderRepository
	eventBus providers.EventBus
	loc      *time.Location
	now      func() time.Time
}

// NewReminderService creates a new reminder service. eventBus may be nil.
func NewReminderService(repo repositories.ReminderRepository, eventBus providers.EventBus) *ReminderService {
	return &ReminderService{
		repo:     repo,
		eventBus: eventBus,
		loc:      time.UTC,
		now:      time.Now,
	}
}

// WithLocation sets the zone date-only checkup dates and the upcoming/past
// split are evaluated in.
func (s *ReminderService) WithLocation(loc *time.Location) *ReminderService {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// WithClock replaces time.Now.
func (s *ReminderService) WithClock(now func() time.Time) *ReminderService {
	s.now = now
	return s
}

// List returns every reminder ordered by checkup date.
func (s *ReminderService) List(ctx context.Context) ([]*entities.Reminder, error) {
	reminders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if reminders == nil {
		reminders = []*entities.Reminder{}
	}
	return reminders, nil
}

// Split groups reminders into upcoming (today or later) and past, both
// keeping the checkup date order.
func (s *ReminderService) Split(ctx context.Context) (*entities.ReminderSplit, error) {
	reminders, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().In(s.loc)
	out := &entities.ReminderSplit{Upcoming: []*entities.Reminder{}, Past: []*entities.Reminder{}}
	for _, r := range reminders {
		if r.IsUpcoming(now) {
			out.Upcoming = append(out.Upcoming, r)
		} else {
			out.Past = append(out.Past, r)
		}
	}
	return out, nil
}

// Get returns a single reminder.
func (s *ReminderService) Get(ctx context.Context, id string) (*entities.Reminder, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("id is required")
	}
	return s.repo.GetByID(ctx, id)
}

// Create validates input and stores a new reminder.
func (s *ReminderService) Create(ctx context.Context, input entities.ReminderInput) (*entities.Reminder, error) {
	name, date, err := s.validate(input)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	reminder := &entities.Reminder{
		ID:          uuid.New().String(),
		DoctorName:  name,
		CheckupDate: date,
		Notes:       strings.TrimSpace(input.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, reminder); err != nil {
		return nil, err
	}

	s.publish(ctx, entities.ReminderEventCreated, reminder.ID, reminder)
	return reminder, nil
}

// Update replaces the editable fields of an existing reminder. Moving the
// checkup date re-arms the due notification.
func (s *ReminderService) Update(ctx context.Context, id string, input entities.ReminderInput) (*entities.Reminder, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("id is required")
	}
	name, date, err := s.validate(input)
	if err != nil {
		return nil, err
	}

	reminder, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !reminder.CheckupDate.Equal(date) {
		reminder.NotifiedAt = nil
	}
	reminder.DoctorName = name
	reminder.CheckupDate = date
	reminder.Notes = strings.TrimSpace(input.Notes)
	reminder.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, reminder); err != nil {
		return nil, err
	}

	s.publish(ctx, entities.ReminderEventUpdated, reminder.ID, reminder)
	return reminder, nil
}

// Delete removes a reminder. A missing id is a not found error.
func (s *ReminderService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.NewValidationError("id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, entities.ReminderEventDeleted, id, nil)
	return nil
}

func (s *ReminderService) validate(input entities.ReminderInput) (string, time.Time, error) {
	name := strings.TrimSpace(input.DoctorName)
	if name == "" {
		return "", time.Time{}, apperrors.NewValidationError(MsgDoctorNameRequired)
	}
	raw := strings.TrimSpace(input.CheckupDate)
	if raw == "" {
		return "", time.Time{}, apperrors.NewValidationError(MsgCheckupDateRequired)
	}
	date, err := ParseCheckupDate(raw, s.loc)
	if err != nil {
		return "", time.Time{}, apperrors.NewValidationError(MsgCheckupDateInvalid)
	}
	return name, date, nil
}

// ParseCheckupDate accepts an RFC 3339 timestamp or a calendar date, which
// is taken as midnight in loc. The result is in UTC.
func ParseCheckupDate(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(checkupDateLayout, raw, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// publish sends the event on the global and the per-reminder channel.
// A bus failure is logged; the mutation already succeeded.
func (s *ReminderService) publish(ctx context.Context, eventType entities.ReminderEventType, id string, reminder *entities.Reminder) {
	if s.eventBus == nil {
		return
	}
	event := entities.NewReminderEvent(eventType, id, reminder)
	for _, channel := range []string{providers.EventChannelReminderUpdates, providers.GetReminderChannel(id)} {
		if err := s.eventBus.Publish(ctx, channel, event); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("channel", channel).Str("event_type", string(eventType)).Msg("Failed to publish reminder event")
		}
	}
}

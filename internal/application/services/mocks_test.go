package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
)

// Mocks

type MockReminderRepository struct {
	mock.Mock
}

func (m *MockReminderRepository) Create(ctx context.Context, reminder *entities.Reminder) error {
	args := m.Called(ctx, reminder)
	return args.Error(0)
}

func (m *MockReminderRepository) GetByID(ctx context.Context, id string) (*entities.Reminder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Reminder), args.Error(1)
}

func (m *MockReminderRepository) List(ctx context.Context) ([]*entities.Reminder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Reminder), args.Error(1)
}

func (m *MockReminderRepository) Update(ctx context.Context, reminder *entities.Reminder) error {
	args := m.Called(ctx, reminder)
	return args.Error(0)
}

func (m *MockReminderRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReminderRepository) ListDue(ctx context.Context, from, to time.Time) ([]*entities.Reminder, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Reminder), args.Error(1)
}

func (m *MockReminderRepository) MarkNotified(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.ReminderEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ReminderEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.ReminderEvent), args.Error(1)
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	return nil
}

type MockSender struct {
	mock.Mock
	channel string
}

func (m *MockSender) Channel() string { return m.channel }

func (m *MockSender) SendReminder(ctx context.Context, reminder *entities.Reminder, message string) error {
	args := m.Called(ctx, reminder, message)
	return args.Error(0)
}

type MockAssistantProvider struct {
	mock.Mock
}

func (m *MockAssistantProvider) Name() string { return "mock" }

func (m *MockAssistantProvider) SuggestConditions(ctx context.Context, symptoms string) (*entities.SymptomSuggestion, error) {
	args := m.Called(ctx, symptoms)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SymptomSuggestion), args.Error(1)
}

func (m *MockAssistantProvider) AnalyzeBloodReport(ctx context.Context, report providers.ReportFile) (*entities.BloodReportAnalysis, error) {
	args := m.Called(ctx, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BloodReportAnalysis), args.Error(1)
}

func (m *MockAssistantProvider) Search(ctx context.Context, query string) (*entities.AISearchResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AISearchResult), args.Error(1)
}

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) BloodReport(a *entities.BloodReportAnalysis) ([]byte, error) {
	args := m.Called(a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockSearchAnalyticsRepository struct {
	mock.Mock
}

func (m *MockSearchAnalyticsRepository) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSearchAnalyticsRepository) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SearchEvent), args.Error(1)
}

func (m *MockSearchAnalyticsRepository) GetPopularQueries(ctx context.Context, since time.Time, limit int) ([]*entities.PopularQuery, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PopularQuery), args.Error(1)
}

type MockFeedbackRepository struct {
	mock.Mock
}

func (m *MockFeedbackRepository) Create(ctx context.Context, feedback *entities.Feedback) error {
	args := m.Called(ctx, feedback)
	return args.Error(0)
}

type MockMedicineRepository struct {
	mock.Mock
}

func (m *MockMedicineRepository) GetByID(ctx context.Context, id string) (*entities.Medicine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) List(ctx context.Context, filter repositories.DirectoryFilter) ([]*entities.Medicine, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.Medicine), args.Int(1), args.Error(2)
}

type MockDoctorRepository struct {
	mock.Mock
}

func (m *MockDoctorRepository) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) List(ctx context.Context, filter repositories.DirectoryFilter) ([]*entities.Doctor, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.Doctor), args.Int(1), args.Error(2)
}

type MockHospitalRepository struct {
	mock.Mock
}

func (m *MockHospitalRepository) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Hospital), args.Error(1)
}

func (m *MockHospitalRepository) List(ctx context.Context, filter repositories.DirectoryFilter) ([]*entities.Hospital, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.Hospital), args.Int(1), args.Error(2)
}

type MockDirectoryIndex struct {
	mock.Mock
}

func (m *MockDirectoryIndex) IndexMedicines(ctx context.Context, items []*entities.Medicine) error {
	return m.Called(ctx, items).Error(0)
}

func (m *MockDirectoryIndex) IndexDoctors(ctx context.Context, items []*entities.Doctor) error {
	return m.Called(ctx, items).Error(0)
}

func (m *MockDirectoryIndex) IndexHospitals(ctx context.Context, items []*entities.Hospital) error {
	return m.Called(ctx, items).Error(0)
}

func (m *MockDirectoryIndex) Search(ctx context.Context, query string, perDirectory int) (*entities.DirectorySearchResult, error) {
	args := m.Called(ctx, query, perDirectory)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DirectorySearchResult), args.Error(1)
}

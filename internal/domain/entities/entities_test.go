package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReminder_IsUpcoming(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		checkup  time.Time
		days     int
		upcoming bool
	}{
		{"earlier today", time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), 0, true},
		{"tomorrow", time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), 1, true},
		{"yesterday", time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC), -1, false},
		{"across dst free month", time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC), 31, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Reminder{CheckupDate: tt.checkup}
			assert.Equal(t, tt.days, r.DaysUntil(now))
			assert.Equal(t, tt.upcoming, r.IsUpcoming(now))
		})
	}
}

func TestParseSeverityAndFinding(t *testing.T) {
	s, ok := ParseSeverity(" moderate ")
	assert.True(t, ok)
	assert.Equal(t, SeverityModerate, s)

	_, ok = ParseSeverity("terrible")
	assert.False(t, ok)

	f, ok := ParseFindingFlag("HIGH")
	assert.True(t, ok)
	assert.Equal(t, FindingHigh, f)
}

func TestIsAppPage(t *testing.T) {
	assert.True(t, IsAppPage("/summarizer"))
	assert.False(t, IsAppPage("https://example.com"))
}

func TestFeedbackFeature_Valid(t *testing.T) {
	assert.True(t, FeedbackFeatureAISearch.Valid())
	assert.False(t, FeedbackFeature("pricing").Valid())
}

func TestDirectorySearchResult_Total(t *testing.T) {
	r := &DirectorySearchResult{TotalMedicines: 2, TotalDoctors: 3, TotalHospitals: 1}
	assert.Equal(t, 6, r.Total())
}

package entities

import "time"

// FeedbackFeature names the part of the app a rating refers to.
type FeedbackFeature string

const (
	FeedbackFeatureSymptoms    FeedbackFeature = "symptoms"
	FeedbackFeatureBloodReport FeedbackFeature = "blood_report"
	FeedbackFeatureAISearch    FeedbackFeature = "ai_search"
	FeedbackFeatureDirectory   FeedbackFeature = "directory"
)

// Valid reports whether f is a known feature.
func (f FeedbackFeature) Valid() bool {
	switch f {
	case FeedbackFeatureSymptoms, FeedbackFeatureBloodReport, FeedbackFeatureAISearch, FeedbackFeatureDirectory:
		return true
	}
	return false
}

// Feedback captures a user's rating of an assistant answer or directory page.
type Feedback struct {
	ID        string          `json:"id" db:"id"`
	Feature   FeedbackFeature `json:"feature" db:"feature"`
	Rating    int             `json:"rating" db:"rating"`
	Comment   string          `json:"comment" db:"comment"`
	UserAgent string          `json:"user_agent" db:"user_agent"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

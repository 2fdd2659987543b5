package entities

import (
	"time"
)

// SearchEvent represents a single directory search for analytics.
type SearchEvent struct {
	ID              string        `json:"id" db:"id"`
	Query           string        `json:"query" db:"query"`
	NormalizedQuery string        `json:"normalized_query" db:"normalized_query"`
	Directory       DirectoryKind `json:"directory" db:"directory"`
	ResultCount     int           `json:"result_count" db:"result_count"`
	LatencyMs       int           `json:"latency_ms" db:"latency_ms"`
	Source          string        `json:"source" db:"source"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
}

// PopularQuery is an aggregated analytics row.
type PopularQuery struct {
	NormalizedQuery string        `json:"query" db:"normalized_query"`
	Directory       DirectoryKind `json:"directory" db:"directory"`
	Count           int           `json:"count" db:"count"`
}

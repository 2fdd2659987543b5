package llm

import (
	"time"

	"golang.org/x/time/rate"
)

// DefaultRequestsPerMinute applies when the configured rate is zero.
const DefaultRequestsPerMinute = 60

// NewLimiter returns a client-side limiter for upstream requests per minute.
// A negative rpm means no limit and yields nil; zero selects the default.
func NewLimiter(rpm, burst int) *rate.Limiter {
	if rpm < 0 {
		return nil
	}
	if rpm == 0 {
		rpm = DefaultRequestsPerMinute
	}
	if burst <= 0 {
		burst = 5
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst)
}

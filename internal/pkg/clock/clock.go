package clock

import (
	"time"

	"github.com/hoangtran-dev/subkeeper/internal/pkg/env"
)

// Clock abstracts "now" so scheduled jobs and date arithmetic can run against
// a fixed date in tests and replays.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the real wall-clock time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (f FixedClock) Now() time.Time {
	return f.T
}

// FromEnv returns a FixedClock when CLOCK_OVERRIDE_DATE is set (format
// 2006-01-02, interpreted in loc), otherwise the system clock.
func FromEnv(loc *time.Location) Clock {
	override := env.GetEnv("CLOCK_OVERRIDE_DATE", "")
	if override == "" {
		return SystemClock{}
	}
	t, err := time.ParseInLocation("2006-01-02", override, loc)
	if err != nil {
		return SystemClock{}
	}
	return FixedClock{T: t}
}

// Today truncates an instant to a date-only value in loc. All day-based
// comparisons in the order lifecycle go through this.
func Today(c Clock, loc *time.Location) time.Time {
	now := c.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}

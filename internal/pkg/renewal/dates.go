package renewal

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

var ErrMissingDurationSuffix = errors.New("product ref carries no duration suffix")

var durationSuffixPattern = regexp.MustCompile(`--(\d+)m$`)

// ParseDurationMonths reads the billing period length from a product ref
// duration suffix, e.g. "netflix-4k--3m" -> 3.
func ParseDurationMonths(productRef string) (int, error) {
	m := durationSuffixPattern.FindStringSubmatch(productRef)
	if m == nil {
		return 0, ErrMissingDurationSuffix
	}
	months, err := strconv.Atoi(m[1])
	if err != nil || months <= 0 {
		return 0, ErrMissingDurationSuffix
	}
	return months, nil
}

// AddMonthsClamped advances d by n calendar months, preserving the day of
// month when the target month has it and clamping to the target month's last
// day otherwise. Jan 31 + 1 month is Feb 28 (or 29), never Mar 2/3 the way
// time.AddDate would roll it.
func AddMonthsClamped(d time.Time, n int) time.Time {
	year, month, day := d.Date()
	firstOfTarget := time.Date(year, month, 1, 0, 0, 0, 0, d.Location()).AddDate(0, n, 0)
	lastDay := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month())
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

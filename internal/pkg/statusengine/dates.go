package statusengine

import (
	"errors"
	"strings"
	"time"

	"github.com/hoangtran-dev/subkeeper/app/models"
)

// DateFormat is the canonical encoding newly written date columns use.
const DateFormat = "2006-01-02"

// Layouts accepted when reading legacy rows. Imported sheets stored dates in
// whatever format the exporting tool produced; everything funnels through
// ParseFlexibleDate until the historical data is migrated.
var flexibleLayouts = []string{
	DateFormat,
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	time.RFC3339,
}

var ErrUnparseableDate = errors.New("unparseable date value")

// ParseFlexibleDate normalizes one of several textual date encodings to a
// date-only value in loc.
func ParseFlexibleDate(s string, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, ErrUnparseableDate
	}
	for _, layout := range flexibleLayouts {
		t, err := time.ParseInLocation(layout, v, loc)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
	}
	return time.Time{}, ErrUnparseableDate
}

// EffectiveExpiry resolves an order's expiry date: the stored value when it
// parses, otherwise orderDate + totalDays - 1. The second return is false
// when neither source yields a usable date.
func EffectiveExpiry(o *models.Order, loc *time.Location) (time.Time, bool) {
	if expiry, err := ParseFlexibleDate(o.ExpiryDate, loc); err == nil {
		return expiry, true
	}
	orderDate, err := ParseFlexibleDate(o.OrderDate, loc)
	if err != nil || o.TotalDays <= 0 {
		return time.Time{}, false
	}
	return orderDate.AddDate(0, 0, o.TotalDays-1), true
}

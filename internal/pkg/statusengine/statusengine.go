package statusengine

import (
	"time"

	"github.com/hoangtran-dev/subkeeper/app/models"
)

// RenewalWindowDays is how many days before expiry an order becomes
// renewable. An order expiring today has 0 days left.
const RenewalWindowDays = 4

// DaysLeft computes whole calendar days between today and expiry: an order
// expiring later today yields 0, yesterday -1. today is read in expiry's
// location, then both dates are rebuilt at UTC midnight so the difference is
// always a multiple of 24h regardless of DST in the business timezone.
func DaysLeft(expiry, today time.Time) int {
	loc := expiry.Location()
	tl := today.In(loc)
	e := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(tl.Year(), tl.Month(), tl.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(t).Hours() / 24)
}

// Eligibility decides whether an order may be renewed right now.
//
// Only RENEWAL and EXPIRED qualify. PROCESSING is the result of a renewal,
// not a precondition for one; treating it as eligible would double-renew an
// order whose fulfilment is still in flight. UNPAID orders have never been
// funded and cannot be extended.
func Eligibility(status models.OrderStatus, expiry, today time.Time) (bool, int) {
	daysLeft := DaysLeft(expiry, today)
	if daysLeft > RenewalWindowDays {
		return false, daysLeft
	}
	switch status {
	case models.OrderStatusRenewal, models.OrderStatusExpired:
		return true, daysLeft
	default:
		return false, daysLeft
	}
}

package ledger

import "math"

// RoundToThousand rounds an amount to the nearest 1,000 VND, half up.
// Every customer-facing amount in the system passes through this.
func RoundToThousand(v float64) int64 {
	if v <= 0 {
		return 0
	}
	return int64(math.Floor(v/1000+0.5)) * 1000
}

// ProratedRefund computes the supplier-side refundable amount for the unused
// part of a billing period: ceil(daysRemaining/totalDays x cost), rounded to
// the nearest thousand.
func ProratedRefund(totalDays, daysRemaining int, cost int64) int64 {
	if totalDays <= 0 || daysRemaining <= 0 || cost <= 0 {
		return 0
	}
	if daysRemaining > totalDays {
		daysRemaining = totalDays
	}
	raw := math.Ceil(float64(daysRemaining) / float64(totalDays) * float64(cost))
	return RoundToThousand(raw)
}

package renewal

import (
	"time"

	"github.com/hoangtran-dev/subkeeper/app/models"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/statusengine"
)

// Inputs carries everything the calculator needs. It is deliberately plain
// data so the computation stays pure and unit-testable without storage.
type Inputs struct {
	OrderCode          string
	ProductRef         string
	OldExpiry          time.Time
	OldCost            int64
	OldPrice           int64
	LatestSupplierCost int64                  // 0 when no catalog row exists
	Pricing            *models.ProductPricing // nil when no price row exists
}

// Quote is the computed outcome of a renewal: the new billing period and the
// re-resolved money.
type Quote struct {
	Months    int
	NewStart  time.Time
	NewEnd    time.Time
	TotalDays int
	Cost      int64
	Price     int64
}

// Calculate derives the renewal quote. The new period starts the day after
// the old expiry and runs N clamped calendar months minus one day. Money
// that resolves to <= 0 falls back new -> old -> zero instead of corrupting
// the order; a gift-tier zero price is a valid outcome, not a failure.
func Calculate(in Inputs) (*Quote, error) {
	months, err := ParseDurationMonths(in.ProductRef)
	if err != nil {
		return nil, err
	}

	newStart := in.OldExpiry.AddDate(0, 0, 1)
	newEnd := AddMonthsClamped(newStart, months).AddDate(0, 0, -1)
	totalDays := statusengine.DaysLeft(newEnd, newStart) + 1

	cost := ResolveCost(in.LatestSupplierCost, in.OldCost)
	if cost <= 0 {
		cost = in.OldCost
	}
	if cost < 0 {
		cost = 0
	}

	tier := TierFromOrderCode(in.OrderCode)
	price := ComputePrice(tier, in.Pricing, cost)
	if price <= 0 && tier != TierGift {
		price = in.OldPrice
	}
	if price < 0 {
		price = 0
	}

	return &Quote{
		Months:    months,
		NewStart:  newStart,
		NewEnd:    newEnd,
		TotalDays: totalDays,
		Cost:      cost,
		Price:     price,
	}, nil
}

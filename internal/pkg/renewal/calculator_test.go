package renewal

import (
	"errors"
	"testing"
	"time"

	"github.com/hoangtran-dev/subkeeper/app/models"
)

func TestCalculateOneMonth(t *testing.T) {
	q, err := Calculate(Inputs{
		OrderCode:          "SH2025ABC",
		ProductRef:         "netflix-4k--1m",
		OldExpiry:          time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
		OldCost:            45000,
		OldPrice:           80000,
		LatestSupplierCost: 50000,
		Pricing: &models.ProductPricing{
			BasePrice:          100000,
			PartnerMultiplier:  1,
			CustomerMultiplier: 1.5,
		},
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if q.Months != 1 {
		t.Fatalf("Months = %d, want 1", q.Months)
	}
	if got := q.NewStart.Format("2006-01-02"); got != "2025-03-16" {
		t.Fatalf("NewStart = %s, want 2025-03-16", got)
	}
	if got := q.NewEnd.Format("2006-01-02"); got != "2025-04-15" {
		t.Fatalf("NewEnd = %s, want 2025-04-15", got)
	}
	if q.TotalDays != 31 {
		t.Fatalf("TotalDays = %d, want 31", q.TotalDays)
	}
	if q.Cost != 50000 {
		t.Fatalf("Cost = %d, want 50000", q.Cost)
	}
	if q.Price != 150000 {
		t.Fatalf("Price = %d, want 150000", q.Price)
	}
}

func TestCalculateClampsMonthEnd(t *testing.T) {
	// old expiry Jan 31 -> new period starts Feb 1, ends Feb 28
	q, err := Calculate(Inputs{
		OrderCode:  "SH2025ABC",
		ProductRef: "netflix-4k--1m",
		OldExpiry:  time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
		OldCost:    45000,
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if got := q.NewEnd.Format("2006-01-02"); got != "2025-02-28" {
		t.Fatalf("NewEnd = %s, want 2025-02-28", got)
	}
	if q.TotalDays != 28 {
		t.Fatalf("TotalDays = %d, want 28", q.TotalDays)
	}
}

func TestCalculateMoneyFallbacks(t *testing.T) {
	t.Run("price falls back to old price", func(t *testing.T) {
		q, err := Calculate(Inputs{
			OrderCode:  "SH2025ABC",
			ProductRef: "spotify--1m",
			OldExpiry:  time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
			OldCost:    45000,
			OldPrice:   90000,
			// no pricing row: retail resolves to 0, falls back
		})
		if err != nil {
			t.Fatalf("Calculate: %v", err)
		}
		if q.Price != 90000 {
			t.Fatalf("Price = %d, want fallback 90000", q.Price)
		}
	})

	t.Run("gift tier zero price is not a failure", func(t *testing.T) {
		q, err := Calculate(Inputs{
			OrderCode:  "QT2025ABC",
			ProductRef: "spotify--1m",
			OldExpiry:  time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
			OldCost:    45000,
			OldPrice:   90000,
		})
		if err != nil {
			t.Fatalf("Calculate: %v", err)
		}
		if q.Price != 0 {
			t.Fatalf("Price = %d, want 0 for gift tier", q.Price)
		}
	})

	t.Run("cost falls back to old cost", func(t *testing.T) {
		q, err := Calculate(Inputs{
			OrderCode:  "CTV2025AB",
			ProductRef: "spotify--1m",
			OldExpiry:  time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
			OldCost:    45000,
		})
		if err != nil {
			t.Fatalf("Calculate: %v", err)
		}
		if q.Cost != 45000 {
			t.Fatalf("Cost = %d, want 45000", q.Cost)
		}
	})
}

func TestCalculateRequiresDurationSuffix(t *testing.T) {
	_, err := Calculate(Inputs{
		OrderCode:  "SH2025ABC",
		ProductRef: "netflix-4k",
		OldExpiry:  time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrMissingDurationSuffix) {
		t.Fatalf("expected ErrMissingDurationSuffix, got %v", err)
	}
}

package renewal

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hoangtran-dev/subkeeper/app/models"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/clock"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/ledger"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/statusengine"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrUnparseableExpiry = errors.New("order has no usable expiry date")
)

// Service performs renewals: the period/money computation plus the order
// update and the supplier-ledger debit, all inside one transaction.
type Service struct {
	db    *gorm.DB
	clock clock.Clock
	loc   *time.Location
}

// NewService creates a renewal service from a GORM DB handle.
func NewService(db *gorm.DB, clk clock.Clock, loc *time.Location) *Service {
	return &Service{db: db, clock: clk, loc: loc}
}

// Result is the structured outcome of one renewal attempt. Skipped renewals
// are expected business outcomes, not errors.
type Result struct {
	OrderCode string `json:"order_code"`
	Skipped   bool   `json:"skipped"`
	Reason    string `json:"reason,omitempty"`
	DaysLeft  int    `json:"days_left"`
	NewExpiry string `json:"new_expiry,omitempty"`
	Cost      int64  `json:"cost,omitempty"`
	Price     int64  `json:"price,omitempty"`
}

// Renew extends one order's billing period. It re-fetches live state inside
// the transaction and re-checks eligibility, so a stale or duplicate request
// for an already-renewed order is skipped without side effects. force
// bypasses the days-left gate but never the status gate.
func (s *Service) Renew(orderCode string, force bool) (*Result, error) {
	var result *Result
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("order_code = ?", orderCode).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("load order %s: %w", orderCode, err)
		}

		expiry, ok := statusengine.EffectiveExpiry(&order, s.loc)
		if !ok {
			return ErrUnparseableExpiry
		}

		today := clock.Today(s.clock, s.loc)
		eligible, daysLeft := statusengine.Eligibility(order.Status, expiry, today)
		if !eligible {
			if !force || !renewableStatus(order.Status) {
				result = &Result{
					OrderCode: order.OrderCode,
					Skipped:   true,
					Reason:    fmt.Sprintf("status %s with %d days left", order.Status, daysLeft),
					DaysLeft:  daysLeft,
				}
				return nil
			}
		}

		quote, err := s.quoteFor(tx, &order, expiry)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"order_date":  quote.NewStart.Format(statusengine.DateFormat),
			"expiry_date": quote.NewEnd.Format(statusengine.DateFormat),
			"total_days":  quote.TotalDays,
			"cost":        quote.Cost,
			"price":       quote.Price,
			"status":      models.OrderStatusProcessing,
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("update order %s: %w", order.OrderCode, err)
		}

		if err := ledger.NewService(tx).Debit(order.SupplierRef, quote.Cost, today); err != nil {
			return err
		}

		result = &Result{
			OrderCode: order.OrderCode,
			DaysLeft:  daysLeft,
			NewExpiry: quote.NewEnd.Format(statusengine.DateFormat),
			Cost:      quote.Cost,
			Price:     quote.Price,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// quoteFor resolves catalog inputs and runs the pure calculator.
func (s *Service) quoteFor(tx *gorm.DB, order *models.Order, expiry time.Time) (*Quote, error) {
	var latestCost int64
	var costRow models.SupplierCost
	err := tx.Where("supplier_ref = ? AND variant_ref = ?", order.SupplierRef, order.ProductRef).
		Order("effective_from DESC").First(&costRow).Error
	switch {
	case err == nil:
		latestCost = costRow.UnitCost
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fall back to the order's stored cost
	default:
		return nil, fmt.Errorf("load supplier cost for %s/%s: %w", order.SupplierRef, order.ProductRef, err)
	}

	var pricing *models.ProductPricing
	var pricingRow models.ProductPricing
	err = tx.Where("variant_ref = ?", order.ProductRef).
		Order("effective_from DESC").First(&pricingRow).Error
	switch {
	case err == nil:
		pricing = &pricingRow
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no price row on file, tier fallbacks apply
	default:
		return nil, fmt.Errorf("load pricing for %s: %w", order.ProductRef, err)
	}

	return Calculate(Inputs{
		OrderCode:          order.OrderCode,
		ProductRef:         order.ProductRef,
		OldExpiry:          expiry,
		OldCost:            order.Cost,
		OldPrice:           order.Price,
		LatestSupplierCost: latestCost,
		Pricing:            pricing,
	})
}

// ListEligibleOrderCodes scans live orders and returns the codes currently
// inside the renewal window. Used by the batch endpoint's default scan.
func (s *Service) ListEligibleOrderCodes() ([]string, error) {
	var orders []models.Order
	if err := s.db.
		Where("status IN ?", []models.OrderStatus{models.OrderStatusRenewal, models.OrderStatusExpired}).
		Find(&orders).Error; err != nil {
		return nil, err
	}

	today := clock.Today(s.clock, s.loc)
	codes := make([]string, 0, len(orders))
	for i := range orders {
		expiry, ok := statusengine.EffectiveExpiry(&orders[i], s.loc)
		if !ok {
			continue
		}
		if eligible, _ := statusengine.Eligibility(orders[i].Status, expiry, today); eligible {
			codes = append(codes, orders[i].OrderCode)
		}
	}
	return codes, nil
}

// renewableStatus limits force-renewals to statuses that represent a live,
// already-fulfilled subscription. Forcing a mid-fulfilment or unfunded order
// would double-charge the supplier.
func renewableStatus(status models.OrderStatus) bool {
	switch status {
	case models.OrderStatusPaid, models.OrderStatusRenewal, models.OrderStatusExpired:
		return true
	default:
		return false
	}
}

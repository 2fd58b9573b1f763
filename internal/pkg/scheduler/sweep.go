package scheduler

import (
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/hoangtran-dev/subkeeper/app/models"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/clock"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/statusengine"
)

// SweepSummary reports what one sweep run changed.
type SweepSummary struct {
	Scanned       int `json:"scanned"`
	Archived      int `json:"archived"`
	MarkedRenewal int `json:"marked_renewal"`
	MarkedExpired int `json:"marked_expired"`
	Normalized    int `json:"normalized"`
	Unparseable   int `json:"unparseable"`
}

// RunSweep advances order statuses by date inside one transaction:
// long-expired PAID/RENEWAL/EXPIRED rows are archived, PAID decays to
// RENEWAL inside the 4-day window and RENEWAL to EXPIRED on the last day.
// PROCESSING rows are never touched: a mid-renewal order must not be
// archived or decayed underneath the renewal pipeline. Any failure rolls the
// whole run back; the next scheduled run retries.
func (s *Scheduler) RunSweep() (*SweepSummary, error) {
	today := clock.Today(s.clock, s.loc)
	summary := &SweepSummary{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var orders []models.Order
		if err := tx.Where("status IN ?", []models.OrderStatus{
			models.OrderStatusPaid,
			models.OrderStatusRenewal,
			models.OrderStatusExpired,
		}).Find(&orders).Error; err != nil {
			return fmt.Errorf("load sweepable orders: %w", err)
		}
		summary.Scanned = len(orders)

		for i := range orders {
			order := &orders[i]
			expiry, ok := statusengine.EffectiveExpiry(order, s.loc)
			if !ok {
				summary.Unparseable++
				log.Warnf("[Sweep] order %s has no usable expiry, skipping", order.OrderCode)
				continue
			}
			daysLeft := statusengine.DaysLeft(expiry, today)

			if daysLeft < 0 {
				if err := archiveOrder(tx, order, models.ArchiveReasonExpired); err != nil {
					return err
				}
				summary.Archived++
				continue
			}

			updates := map[string]interface{}{}

			// Normalize legacy date text to the canonical encoding so later
			// runs read it without the multi-pattern shim.
			canonical := expiry.Format(statusengine.DateFormat)
			if order.ExpiryDate != canonical {
				updates["expiry_date"] = canonical
				summary.Normalized++
			}

			status := order.Status
			if status == models.OrderStatusPaid && daysLeft <= statusengine.RenewalWindowDays {
				status = models.OrderStatusRenewal
				summary.MarkedRenewal++
			}
			if status == models.OrderStatusRenewal && daysLeft == 0 {
				status = models.OrderStatusExpired
				summary.MarkedExpired++
			}
			if status != order.Status {
				updates["status"] = status
			}

			if len(updates) == 0 {
				continue
			}
			if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("sweep update order %s: %w", order.OrderCode, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Fires only after a committed sweep; failures are logged, never fatal.
	s.postBackupHook(summary)

	return summary, nil
}

// archiveOrder copies the row to the archive table and removes it from the
// live table, both inside the caller's transaction.
func archiveOrder(tx *gorm.DB, order *models.Order, reason string) error {
	if err := tx.Create(models.NewArchivedOrder(order, reason)).Error; err != nil {
		return fmt.Errorf("archive order %s: %w", order.OrderCode, err)
	}
	if err := tx.Delete(&models.Order{}, order.ID).Error; err != nil {
		return fmt.Errorf("remove archived order %s: %w", order.OrderCode, err)
	}
	return nil
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/hoangtran-dev/subkeeper/app/models"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/clock"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/statusengine"
)

const interSendDelay = 500 * time.Millisecond

// NotifySummary reports one notification batch.
type NotifySummary struct {
	Matched int `json:"matched"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

// RunExpiryNotifications messages every order expiring today that the sweep
// already marked EXPIRED. Per-order failures are logged and never abort the
// batch; the sweep's own state is long committed by the time this runs.
func (s *Scheduler) RunExpiryNotifications() (*NotifySummary, error) {
	return s.notifyBatch(models.OrderStatusExpired, 0, func(o *models.Order) string {
		return fmt.Sprintf("⛔ Đơn %s (%s) hết hạn hôm nay. Khách: %s", o.OrderCode, o.ProductRef, o.Customer)
	})
}

// RunRenewalNotifications messages every order entering the renewal window
// at exactly four days left.
func (s *Scheduler) RunRenewalNotifications() (*NotifySummary, error) {
	return s.notifyBatch(models.OrderStatusRenewal, statusengine.RenewalWindowDays, func(o *models.Order) string {
		return fmt.Sprintf("⏰ Đơn %s (%s) còn 4 ngày. Khách: %s", o.OrderCode, o.ProductRef, o.Customer)
	})
}

func (s *Scheduler) notifyBatch(status models.OrderStatus, wantDaysLeft int, message func(*models.Order) string) (*NotifySummary, error) {
	var orders []models.Order
	if err := s.db.Where("status = ?", status).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("load %s orders: %w", status, err)
	}

	today := clock.Today(s.clock, s.loc)
	summary := &NotifySummary{}
	for i := range orders {
		order := &orders[i]
		expiry, ok := statusengine.EffectiveExpiry(order, s.loc)
		if !ok {
			continue
		}
		if statusengine.DaysLeft(expiry, today) != wantDaysLeft {
			continue
		}
		// small gap between consecutive sends to stay inside gateway
		// rate limits; nothing before the first or after the last
		if summary.Matched > 0 {
			time.Sleep(interSendDelay)
		}
		summary.Matched++

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := s.sender.Send(ctx, message(order))
		cancel()
		if err != nil {
			summary.Failed++
			log.Errorf("[Notify] order %s: %v", order.OrderCode, err)
		} else {
			summary.Sent++
		}
	}
	return summary, nil
}

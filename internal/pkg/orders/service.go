package orders

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hoangtran-dev/subkeeper/app/models"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/clock"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/ledger"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/statusengine"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrInvalidPeriod   = errors.New("order period is inconsistent")
	ErrNotFulfillable  = errors.New("order is not awaiting fulfilment")
	ErrDuplicateOrder  = errors.New("order code already exists")
	ErrMissingRequired = errors.New("order code and product ref are required")
)

// Service covers the order operations the lifecycle depends on: creation,
// fulfilment and cancellation with the supplier-side money effects. The
// catalog CRUD surface around it lives elsewhere.
type Service struct {
	db    *gorm.DB
	clock clock.Clock
	loc   *time.Location
}

// NewService creates an order service from a GORM DB handle.
func NewService(db *gorm.DB, clk clock.Clock, loc *time.Location) *Service {
	return &Service{db: db, clock: clk, loc: loc}
}

// CreateInput carries a new order. Either ExpiryDate or TotalDays may be
// omitted; the other is derived. When both are present they must agree.
type CreateInput struct {
	OrderCode   string `json:"order_code" validate:"required"`
	ProductRef  string `json:"product_ref" validate:"required"`
	SupplierRef string `json:"supplier_ref"`
	Cost        int64  `json:"cost" validate:"gte=0"`
	Price       int64  `json:"price" validate:"gte=0"`
	OrderDate   string `json:"order_date"`
	ExpiryDate  string `json:"expiry_date"`
	TotalDays   int    `json:"total_days" validate:"gte=0"`
	Customer    string `json:"customer"`
	Slot        string `json:"slot"`
	Note        string `json:"note"`
}

// Create inserts a new UNPAID order. No money moves here: the supplier is
// debited when the first fund receipt arrives, not at creation.
func (s *Service) Create(in CreateInput) (*models.Order, error) {
	code := strings.ToUpper(strings.TrimSpace(in.OrderCode))
	if code == "" || strings.TrimSpace(in.ProductRef) == "" {
		return nil, ErrMissingRequired
	}

	orderDateStr := strings.TrimSpace(in.OrderDate)
	if orderDateStr == "" {
		orderDateStr = clock.Today(s.clock, s.loc).Format(statusengine.DateFormat)
	}
	orderDate, err := statusengine.ParseFlexibleDate(orderDateStr, s.loc)
	if err != nil {
		return nil, fmt.Errorf("order date: %w", err)
	}

	expiryStr := strings.TrimSpace(in.ExpiryDate)
	totalDays := in.TotalDays
	switch {
	case expiryStr == "" && totalDays > 0:
		expiryStr = orderDate.AddDate(0, 0, totalDays-1).Format(statusengine.DateFormat)
	case expiryStr != "":
		expiry, err := statusengine.ParseFlexibleDate(expiryStr, s.loc)
		if err != nil {
			return nil, fmt.Errorf("expiry date: %w", err)
		}
		span := statusengine.DaysLeft(expiry, orderDate) + 1
		if span <= 0 {
			return nil, ErrInvalidPeriod
		}
		if totalDays == 0 {
			totalDays = span
		} else if totalDays != span {
			return nil, ErrInvalidPeriod
		}
		expiryStr = expiry.Format(statusengine.DateFormat)
	default:
		return nil, ErrInvalidPeriod
	}

	order := &models.Order{
		OrderCode:   code,
		ProductRef:  strings.TrimSpace(in.ProductRef),
		SupplierRef: strings.TrimSpace(in.SupplierRef),
		Cost:        in.Cost,
		Price:       in.Price,
		OrderDate:   orderDate.Format(statusengine.DateFormat),
		ExpiryDate:  expiryStr,
		TotalDays:   totalDays,
		Status:      models.OrderStatusUnpaid,
		Customer:    strings.TrimSpace(in.Customer),
		Slot:        strings.TrimSpace(in.Slot),
		Note:        in.Note,
	}
	if err := s.db.Create(order).Error; err != nil {
		var existing models.Order
		if lookupErr := s.db.Where("order_code = ?", code).First(&existing).Error; lookupErr == nil {
			return nil, ErrDuplicateOrder
		}
		return nil, fmt.Errorf("create order %s: %w", code, err)
	}
	return order, nil
}

// Get loads one live order by code.
func (s *Service) Get(orderCode string) (*models.Order, error) {
	var order models.Order
	err := s.db.Where("order_code = ?", strings.ToUpper(strings.TrimSpace(orderCode))).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Fulfil marks a funded order as delivered: PROCESSING -> PAID. The status
// predicate keeps a double fulfilment harmless.
func (s *Service) Fulfil(orderCode string) (*models.Order, error) {
	order, err := s.Get(orderCode)
	if err != nil {
		return nil, err
	}
	res := s.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, models.OrderStatusProcessing).
		Update("status", models.OrderStatusPaid)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFulfillable
	}
	order.Status = models.OrderStatusPaid
	return order, nil
}

// Delete cancels an order: the unused part of the supplier cost is credited
// back pro rata and the row moves to the canceled archive. All inside one
// transaction; UNPAID orders were never debited so nothing is credited.
func (s *Service) Delete(orderCode string) error {
	today := clock.Today(s.clock, s.loc)
	return s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.Where("order_code = ?", strings.ToUpper(strings.TrimSpace(orderCode))).First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}

		if refund := s.refundableAmount(&order, today); refund > 0 {
			if err := ledger.NewService(tx).Credit(order.SupplierRef, refund, today); err != nil {
				return err
			}
		}

		order.Status = models.OrderStatusCanceled
		if err := tx.Create(models.NewArchivedOrder(&order, models.ArchiveReasonCanceled)).Error; err != nil {
			return fmt.Errorf("archive canceled order %s: %w", order.OrderCode, err)
		}
		return tx.Delete(&models.Order{}, order.ID).Error
	})
}

// refundableAmount prorates the supplier cost over the remaining days. Only
// statuses whose cost was actually debited can yield a refund.
func (s *Service) refundableAmount(order *models.Order, today time.Time) int64 {
	switch order.Status {
	case models.OrderStatusProcessing, models.OrderStatusPaid, models.OrderStatusRenewal:
	default:
		return 0
	}
	expiry, ok := statusengine.EffectiveExpiry(order, s.loc)
	if !ok {
		return 0
	}
	daysRemaining := statusengine.DaysLeft(expiry, today)
	if daysRemaining < 0 {
		return 0
	}
	return ledger.ProratedRefund(order.TotalDays, daysRemaining, order.Cost)
}

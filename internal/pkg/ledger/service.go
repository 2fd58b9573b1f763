package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hoangtran-dev/subkeeper/app/models"
)

// ErrNoOpenCycle is returned by MarkCyclePaid when the supplier has nothing
// outstanding.
var ErrNoOpenCycle = errors.New("supplier has no open debt cycle")

// Service is the single mutation point for supplier-owed balances. All
// methods run against the handle the service was built with, so callers
// embed ledger mutations in their own transaction by constructing the
// service over the transaction handle.
type Service struct {
	db *gorm.DB
}

// NewService creates a supplier ledger over a GORM handle (usually a tx).
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// RoundLabelFor formats the billing-round label a cycle opened on date
// carries, e.g. "2026-08".
func RoundLabelFor(date time.Time) string {
	return date.Format("2006-01")
}

// Debit adds a new charge to the supplier's open UNPAID cycle, opening one
// when none exists. Amounts <= 0 are a silent no-op so callers don't need to
// special-case free or unresolved costs.
func (s *Service) Debit(supplierRef string, amount int64, date time.Time) error {
	if amount <= 0 {
		return nil
	}
	return s.apply(supplierRef, amount, date)
}

// Credit subtracts from the open cycle, used on cancellation refunds. When
// no cycle is open it records a negative-value adjustment cycle instead of
// touching a closed one: PAID cycles are immutable.
func (s *Service) Credit(supplierRef string, amount int64, date time.Time) error {
	if amount <= 0 {
		return nil
	}
	return s.apply(supplierRef, -amount, date)
}

func (s *Service) apply(supplierRef string, delta int64, date time.Time) error {
	ref := strings.TrimSpace(supplierRef)
	if ref == "" || delta == 0 {
		return nil
	}

	// One atomic update against the open cycle; insert only when no row was
	// touched. Status is part of the predicate so a concurrently closed cycle
	// can never absorb the charge.
	res := s.db.Model(&models.SupplierDebtCycle{}).
		Where("supplier_ref = ? AND status = ?", ref, models.DebtCycleStatusUnpaid).
		UpdateColumn("import_value", gorm.Expr("import_value + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("update open debt cycle for %s: %w", ref, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	cycle := &models.SupplierDebtCycle{
		SupplierRef: ref,
		ImportValue: delta,
		Paid:        0,
		RoundLabel:  RoundLabelFor(date),
		Status:      models.DebtCycleStatusUnpaid,
	}
	if err := s.db.Create(cycle).Error; err != nil {
		return fmt.Errorf("open debt cycle for %s: %w", ref, err)
	}
	return nil
}

// OpenCycle returns the supplier's current UNPAID cycle, or nil when none.
func (s *Service) OpenCycle(supplierRef string) (*models.SupplierDebtCycle, error) {
	var cycle models.SupplierDebtCycle
	err := s.db.Where("supplier_ref = ? AND status = ?", strings.TrimSpace(supplierRef), models.DebtCycleStatusUnpaid).
		First(&cycle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

// MarkCyclePaid settles and closes the open cycle. The closed row is
// immutable from then on.
func (s *Service) MarkCyclePaid(supplierRef string, date time.Time) error {
	res := s.db.Model(&models.SupplierDebtCycle{}).
		Where("supplier_ref = ? AND status = ?", strings.TrimSpace(supplierRef), models.DebtCycleStatusUnpaid).
		Updates(map[string]interface{}{
			"paid":       gorm.Expr("import_value"),
			"status":     models.DebtCycleStatusPaid,
			"updated_at": date,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoOpenCycle
	}
	return nil
}

package models

import "time"

const (
	DebtCycleStatusUnpaid = "UNPAID"
	DebtCycleStatusPaid   = "PAID"
)

// SupplierDebtCycle is a running balance owed to one supplier. At most one
// UNPAID cycle is open per supplier; new charges accumulate into it. Once a
// cycle is marked PAID it is immutable and later adjustments open a new
// cycle instead.
type SupplierDebtCycle struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SupplierRef string    `gorm:"type:varchar(64);not null;index:idx_debt_cycles_supplier_status,priority:1" json:"supplier_ref"`
	ImportValue int64     `gorm:"not null;default:0" json:"import_value"`
	Paid        int64     `gorm:"not null;default:0" json:"paid"`
	RoundLabel  string    `gorm:"type:varchar(32);not null" json:"round_label"`
	Status      string    `gorm:"type:varchar(20);not null;default:'UNPAID';index:idx_debt_cycles_supplier_status,priority:2" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

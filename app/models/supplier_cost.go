package models

import "time"

// SupplierCost records what a supplier charges for one product variant at a
// point in time. The renewal calculator always resolves the newest row for a
// (variant, supplier) pair; older rows stay for audit.
type SupplierCost struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SupplierRef   string    `gorm:"type:varchar(64);not null;index:idx_supplier_costs_pair,priority:1" json:"supplier_ref"`
	VariantRef    string    `gorm:"type:varchar(191);not null;index:idx_supplier_costs_pair,priority:2" json:"variant_ref"`
	UnitCost      int64     `gorm:"not null;default:0" json:"unit_cost"`
	EffectiveFrom time.Time `gorm:"not null;index" json:"effective_from"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

package models

import "time"

const (
	ArchiveReasonExpired  = "expired"
	ArchiveReasonCanceled = "canceled"
)

// ArchivedOrder is a frozen copy of an order taken out of the live table,
// either by the expiry sweep or by an explicit cancellation. The original
// order code stays queryable but is no longer unique here: an order can in
// principle be re-created and archived again.
type ArchivedOrder struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	OrderID       uint        `gorm:"not null;index" json:"order_id"`
	OrderCode     string      `gorm:"type:varchar(64);not null;index" json:"order_code"`
	ProductRef    string      `gorm:"type:varchar(191);not null" json:"product_ref"`
	SupplierRef   string      `gorm:"type:varchar(64)" json:"supplier_ref"`
	Cost          int64       `gorm:"not null;default:0" json:"cost"`
	Price         int64       `gorm:"not null;default:0" json:"price"`
	OrderDate     string      `gorm:"type:varchar(32)" json:"order_date"`
	ExpiryDate    string      `gorm:"type:varchar(32)" json:"expiry_date"`
	TotalDays     int         `gorm:"not null;default:0" json:"total_days"`
	Status        OrderStatus `gorm:"type:varchar(20);not null" json:"status"`
	Customer      string      `gorm:"type:varchar(191)" json:"customer"`
	Slot          string      `gorm:"type:varchar(64)" json:"slot"`
	Note          string      `gorm:"type:text" json:"note"`
	ArchiveReason string      `gorm:"type:varchar(20);not null;index" json:"archive_reason"`
	ArchivedAt    time.Time   `gorm:"autoCreateTime" json:"archived_at"`
}

// NewArchivedOrder copies a live order into its archive form.
func NewArchivedOrder(o *Order, reason string) *ArchivedOrder {
	return &ArchivedOrder{
		OrderID:       o.ID,
		OrderCode:     o.OrderCode,
		ProductRef:    o.ProductRef,
		SupplierRef:   o.SupplierRef,
		Cost:          o.Cost,
		Price:         o.Price,
		OrderDate:     o.OrderDate,
		ExpiryDate:    o.ExpiryDate,
		TotalDays:     o.TotalDays,
		Status:        o.Status,
		Customer:      o.Customer,
		Slot:          o.Slot,
		Note:          o.Note,
		ArchiveReason: reason,
	}
}

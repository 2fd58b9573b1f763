package models

import (
	"strings"
	"time"
)

// OrderStatus is a closed enum. Comparisons always go through these
// constants; display text lives in the label map below so a translation
// change can never break a status check.
type OrderStatus string

const (
	OrderStatusUnpaid     OrderStatus = "UNPAID"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusRenewal    OrderStatus = "RENEWAL"
	OrderStatusExpired    OrderStatus = "EXPIRED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
	OrderStatusCanceled   OrderStatus = "CANCELED"
)

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusUnpaid:     "Chưa thanh toán",
	OrderStatusProcessing: "Đang xử lý",
	OrderStatusPaid:       "Đã thanh toán",
	OrderStatusRenewal:    "Cần gia hạn",
	OrderStatusExpired:    "Hết hạn",
	OrderStatusRefunded:   "Đã hoàn tiền",
	OrderStatusCanceled:   "Đã hủy",
}

// ParseOrderStatus maps free-form input to a known status. Unknown input
// returns false rather than a zero value sneaking into comparisons.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := orderStatusLabels[status]; !ok {
		return "", false
	}
	return status, true
}

// DisplayLabel returns the localized label for a status, falling back to the
// raw value for unknown input.
func (s OrderStatus) DisplayLabel() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsValid reports whether s is one of the closed enum values.
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

// Order is a subscription-resale order: access credentials sold with a fixed
// validity window. OrderDate and ExpiryDate are kept as text because years of
// imported rows carry several date encodings; the sweep normalizes them when
// it runs (see internal/pkg/statusengine).
type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	OrderCode   string      `gorm:"type:varchar(64);not null;uniqueIndex:ux_orders_order_code" json:"order_code"`
	ProductRef  string      `gorm:"type:varchar(191);not null;index" json:"product_ref"`
	SupplierRef string      `gorm:"type:varchar(64);index" json:"supplier_ref"`
	Cost        int64       `gorm:"not null;default:0" json:"cost"`
	Price       int64       `gorm:"not null;default:0" json:"price"`
	OrderDate   string      `gorm:"type:varchar(32)" json:"order_date"`
	ExpiryDate  string      `gorm:"type:varchar(32)" json:"expiry_date"`
	TotalDays   int         `gorm:"not null;default:0" json:"total_days"`
	Status      OrderStatus `gorm:"type:varchar(20);not null;default:'UNPAID';index" json:"status"`
	Customer    string      `gorm:"type:varchar(191)" json:"customer"`
	Slot        string      `gorm:"type:varchar(64)" json:"slot"`
	Note        string      `gorm:"type:text" json:"note"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// DurationSuffix extracts the trailing duration token of the product ref
// (e.g. "netflix-4k--1m" -> "--1m"). Empty when the ref carries none.
func (o *Order) DurationSuffix() string {
	idx := strings.LastIndex(o.ProductRef, "--")
	if idx < 0 {
		return ""
	}
	return o.ProductRef[idx:]
}

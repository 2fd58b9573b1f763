package models

import "time"

// PaymentReceipt is the append-only audit trail of inbound bank-transfer
// notifications. Exactly one row is written per accepted webhook call,
// whether or not an order code could be derived from the transfer memo.
// Unmatched rows (Matched=false) surface in reconciliation instead of being
// dropped.
type PaymentReceipt struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ReferenceID    string    `gorm:"type:varchar(36);not null;uniqueIndex:ux_payment_receipts_reference" json:"reference_id"`
	OrderCode      string    `gorm:"type:varchar(64);index" json:"order_code"`
	PaidDate       string    `gorm:"type:varchar(32)" json:"paid_date"`
	Amount         int64     `gorm:"not null;default:0" json:"amount"`
	Sender         string    `gorm:"type:varchar(191)" json:"sender"`
	Receiver       string    `gorm:"type:varchar(191)" json:"receiver"`
	Note           string    `gorm:"type:text" json:"note"`
	RawPayloadJSON string    `gorm:"type:longtext" json:"raw_payload_json"`
	SignatureValid bool      `gorm:"default:false" json:"signature_valid"`
	Matched        bool      `gorm:"default:false;index" json:"matched"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

package models

import "time"

// ProductPricing holds the selling-price inputs for one product variant:
// the base price plus the partner and customer multipliers the tiered price
// formulas combine. Multipliers imported from legacy sheets are sometimes
// stored in hundredths (150 meaning 1.5); normalization happens at read time
// in the renewal calculator, never here.
type ProductPricing struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	VariantRef         string    `gorm:"type:varchar(191);not null;index" json:"variant_ref"`
	BasePrice          int64     `gorm:"not null;default:0" json:"base_price"`
	PartnerMultiplier  float64   `gorm:"not null;default:1" json:"partner_multiplier"`
	CustomerMultiplier float64   `gorm:"not null;default:1" json:"customer_multiplier"`
	PromoPercent       float64   `gorm:"not null;default:0" json:"promo_percent"`
	EffectiveFrom      time.Time `gorm:"not null;index" json:"effective_from"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
}

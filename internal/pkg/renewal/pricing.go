package renewal

import (
	"strings"

	"github.com/hoangtran-dev/subkeeper/app/models"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/ledger"
)

// Tier selects which price formula applies to an order. The leading
// alphabetic prefix of the order code is the tier key.
type Tier string

const (
	TierWholesale Tier = "wholesale" // GH: partner bulk orders
	TierRetail    Tier = "retail"    // SH: direct customers
	TierPromo     Tier = "promo"     // KM: retail with a promo fraction off
	TierGift      Tier = "gift"      // QT: giveaways, always zero
	TierCost      Tier = "cost"      // CTV: collaborators pay raw cost
	TierUnknown   Tier = "unknown"
)

// TierFromOrderCode maps the leading alphabetic run of an order code to a
// pricing tier. "CTV" is checked before the two-letter prefixes so a
// collaborator code never falls into a shorter match.
func TierFromOrderCode(orderCode string) Tier {
	code := strings.ToUpper(strings.TrimSpace(orderCode))
	switch {
	case strings.HasPrefix(code, "CTV"):
		return TierCost
	case strings.HasPrefix(code, "GH"):
		return TierWholesale
	case strings.HasPrefix(code, "SH"):
		return TierRetail
	case strings.HasPrefix(code, "KM"):
		return TierPromo
	case strings.HasPrefix(code, "QT"):
		return TierGift
	default:
		return TierUnknown
	}
}

// NormalizeMultiplier interprets legacy multiplier encodings: values above 10
// were stored in hundredths (150 means 1.5), values at or below 10 are used
// as-is. Applied uniformly wherever a multiplier is read.
func NormalizeMultiplier(m float64) float64 {
	if m > 10 {
		return m / 100
	}
	return m
}

// NormalizePromo interprets a promo discount, accepting both fraction (0.2)
// and percent (20) encodings and clamping to [0, 1].
func NormalizePromo(p float64) float64 {
	if p > 1 {
		p = p / 100
	}
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// NormalizeLegacyCost corrects values recorded during the period when unit
// costs were persisted at a x100 scale. A value divisible by 100 sitting
// 40x-150x above the trustworthy reference is taken as scale-corrupt and
// rescaled; everything else passes through untouched. Best-effort heuristic
// kept for compatibility with historical rows.
func NormalizeLegacyCost(value, reference int64) int64 {
	if value <= 0 || reference <= 0 {
		return value
	}
	if value%100 != 0 {
		return value
	}
	ratio := value / reference
	if ratio >= 40 && ratio <= 150 {
		return value / 100
	}
	return value
}

// ResolveCost picks the supplier cost for a renewal: the latest catalog cost
// when one is on file, run through the legacy-scale correction with the
// order's stored cost as reference; otherwise the stored cost itself.
func ResolveCost(latestSupplierCost, storedCost int64) int64 {
	if latestSupplierCost > 0 {
		return NormalizeLegacyCost(latestSupplierCost, storedCost)
	}
	return storedCost
}

// ComputePrice applies the tier formula. pricing may be nil when no price
// row is on file; the unmatched fallback then resolves from cost alone.
func ComputePrice(tier Tier, pricing *models.ProductPricing, cost int64) int64 {
	var base int64
	var partner, customer, promo float64 = 1, 1, 0
	if pricing != nil {
		base = pricing.BasePrice
		partner = NormalizeMultiplier(pricing.PartnerMultiplier)
		customer = NormalizeMultiplier(pricing.CustomerMultiplier)
		promo = NormalizePromo(pricing.PromoPercent)
	}

	switch tier {
	case TierGift:
		return 0
	case TierCost:
		return ledger.RoundToThousand(float64(cost))
	case TierWholesale:
		return ledger.RoundToThousand(float64(base) * partner)
	case TierRetail:
		return ledger.RoundToThousand(float64(base) * partner * customer)
	case TierPromo:
		retail := float64(base) * partner * customer
		if promo > 0 {
			retail = retail * (1 - promo)
		}
		return ledger.RoundToThousand(retail)
	default:
		if base > 0 {
			return ledger.RoundToThousand(float64(base))
		}
		return ledger.RoundToThousand(float64(cost))
	}
}

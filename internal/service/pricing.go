package service

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/meterwise/meterwise/internal/domain/plan"
	"github.com/meterwise/meterwise/internal/logger"
)

// TierDetail is the per tier breakdown of a tiered pricing calculation.
// Only tiers that received nonzero quantity are reported.
type TierDetail struct {
	TierName  string          `json:"tier_name,omitempty"`
	TierIndex int             `json:"tier_index"`
	Quantity  decimal.Decimal `json:"quantity"`
	Charge    decimal.Decimal `json:"charge"`
}

// TieredPricingResult is the outcome of walking a quantity through price tiers
type TieredPricingResult struct {
	TotalCharge   decimal.Decimal `json:"total_charge"`
	EffectiveRate decimal.Decimal `json:"effective_rate"`
	TierDetails   []TierDetail    `json:"tier_details"`
}

// VolumeDiscountApplication describes the discount rule that was applied
// to a base charge
type VolumeDiscountApplication struct {
	Name            string          `json:"name"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
}

type TieredPricingService interface {
	CalculateTieredPricing(ctx context.Context, quantity decimal.Decimal, tiers []plan.PriceTier) *TieredPricingResult
	CalculateVolumeDiscount(ctx context.Context, baseCharge decimal.Decimal, quantity decimal.Decimal, discounts []plan.VolumeDiscount) (decimal.Decimal, *VolumeDiscountApplication)
}

type tieredPricingService struct {
	logger *logger.Logger
}

func NewTieredPricingService(logger *logger.Logger) TieredPricingService {
	return &tieredPricingService{logger: logger}
}

// CalculateTieredPricing bills the quantity progressively across the tiers.
// Each tier bills the slice of quantity falling inside its absolute bracket,
// min(quantity, max) - min clamped to the tier's capacity, so every unit is
// billed in exactly one tier and a quantity exactly at a boundary stays
// entirely within the lower tier. Units below the first tier's floor belong
// to no bracket and are not billed.
func (s *tieredPricingService) CalculateTieredPricing(
	ctx context.Context,
	quantity decimal.Decimal,
	tiers []plan.PriceTier,
) *TieredPricingResult {
	result := &TieredPricingResult{
		TotalCharge:   decimal.Zero,
		EffectiveRate: decimal.Zero,
		TierDetails:   []TierDetail{},
	}
	if len(tiers) == 0 {
		return result
	}

	// Sort price tiers by min_quantity without mutating the caller's slice
	sorted := make([]plan.PriceTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinQuantity.LessThan(sorted[j].MinQuantity)
	})

	for i, tier := range sorted {
		if quantity.LessThanOrEqual(tier.MinQuantity) {
			break
		}

		billableUpper := quantity
		if tier.MaxQuantity != nil && billableUpper.GreaterThan(*tier.MaxQuantity) {
			billableUpper = *tier.MaxQuantity
		}
		tierQuantity := billableUpper.Sub(tier.MinQuantity)
		if tierQuantity.LessThanOrEqual(decimal.Zero) {
			continue
		}

		tierCharge := tier.CalculateTierAmount(tierQuantity)
		result.TotalCharge = result.TotalCharge.Add(tierCharge)
		result.TierDetails = append(result.TierDetails, TierDetail{
			TierName:  tier.Name,
			TierIndex: i,
			Quantity:  tierQuantity,
			Charge:    tierCharge,
		})

		s.logger.WithContext(ctx).Debugf(
			"tier %d billed quantity %s for charge %s",
			i, tierQuantity.String(), tierCharge.String(),
		)
	}

	if quantity.IsPositive() {
		result.EffectiveRate = result.TotalCharge.Div(quantity)
	} else {
		result.EffectiveRate = sorted[0].UnitPrice
	}

	return result
}

// CalculateVolumeDiscount applies the best qualifying discount rule to the
// base charge. The rule with the highest min_quantity satisfied by the
// quantity wins; when no rule qualifies the charge passes through unchanged.
func (s *tieredPricingService) CalculateVolumeDiscount(
	ctx context.Context,
	baseCharge decimal.Decimal,
	quantity decimal.Decimal,
	discounts []plan.VolumeDiscount,
) (decimal.Decimal, *VolumeDiscountApplication) {
	var selected *plan.VolumeDiscount
	for i := range discounts {
		discount := &discounts[i]
		if quantity.LessThan(discount.MinQuantity) {
			continue
		}
		if selected == nil || discount.MinQuantity.GreaterThan(selected.MinQuantity) {
			selected = discount
		}
	}

	if selected == nil {
		return baseCharge, nil
	}

	discountAmount := baseCharge.Mul(selected.DiscountPercent).Div(decimal.NewFromInt(100))
	finalCharge := baseCharge.Sub(discountAmount)

	s.logger.WithContext(ctx).Debugf(
		"applied volume discount %s (%s%%) reducing charge %s to %s",
		selected.Name, selected.DiscountPercent.String(), baseCharge.String(), finalCharge.String(),
	)

	return finalCharge, &VolumeDiscountApplication{
		Name:            selected.Name,
		DiscountPercent: selected.DiscountPercent,
		DiscountAmount:  discountAmount,
	}
}

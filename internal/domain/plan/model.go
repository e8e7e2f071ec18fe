package plan

import (
	"github.com/shopspring/decimal"

	ierr "github.com/meterwise/meterwise/internal/errors"
	"github.com/meterwise/meterwise/internal/types"
)

// PriceTier is one quantity bracket of a tiered price.
// Tiers are ordered ascending by MinQuantity, are contiguous and never overlap.
// A tier's MaxQuantity is exclusive to the next tier's MinQuantity: quantity
// exactly at a boundary bills entirely within the lower tier.
type PriceTier struct {
	// Name is an optional display name for the tier ex "first 1000 calls"
	Name string `json:"name,omitempty"`

	// MinQuantity is the inclusive lower bound of the tier
	MinQuantity decimal.Decimal `json:"min_quantity"`

	// MaxQuantity is the upper bound of the tier. It is nil for the last tier
	// when that tier is unbounded.
	MaxQuantity *decimal.Decimal `json:"max_quantity,omitempty"`

	// UnitPrice is the price per unit within the tier
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// IsUnbounded returns true when the tier has no upper bound
func (t PriceTier) IsUnbounded() bool {
	return t.MaxQuantity == nil
}

// Capacity returns how many units the tier can absorb. The second return is
// false for an unbounded tier.
func (t PriceTier) Capacity() (decimal.Decimal, bool) {
	if t.MaxQuantity == nil {
		return decimal.Zero, false
	}
	return t.MaxQuantity.Sub(t.MinQuantity), true
}

// CalculateTierAmount performs the charge calculation for the quantity billed
// within this tier
func (t PriceTier) CalculateTierAmount(quantity decimal.Decimal) decimal.Decimal {
	return t.UnitPrice.Mul(quantity)
}

// VolumeDiscount is a percentage reduction applied to a total charge once the
// quantity threshold is met
type VolumeDiscount struct {
	// Name is the display name of the discount rule ex "5k+ committed volume"
	Name string `json:"name"`

	// MinQuantity is the inclusive threshold at which the discount qualifies
	MinQuantity decimal.Decimal `json:"min_quantity"`

	// DiscountPercent is the percentage taken off the base charge ex 15 for 15%
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// PricingConfig is the pricing configuration for one overage metric.
// Model discriminates which fields apply: UnitPrice for FLAT_FEE, Tiers
// (and optionally VolumeDiscounts) for TIERED.
type PricingConfig struct {
	// Model is the pricing model discriminator
	Model types.PricingModel `json:"model"`

	// UnitPrice is the flat per unit price when Model is FLAT_FEE
	UnitPrice decimal.Decimal `json:"unit_price,omitempty"`

	// Tiers are the price tiers when Model is TIERED
	Tiers []PriceTier `json:"tiers,omitempty"`

	// VolumeDiscounts are optional threshold discounts applied to the tiered
	// total before the line item is emitted
	VolumeDiscounts []VolumeDiscount `json:"volume_discounts,omitempty"`

	// Description of the charge as it should appear on the invoice
	Description string `json:"description"`

	// Taxable marks whether the resulting line item is subject to tax
	Taxable bool `json:"taxable"`
}

// Validate checks model specific fields and the tier sequence invariants
func (c PricingConfig) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return err
	}

	switch c.Model {
	case types.PRICING_MODEL_FLAT_FEE:
		if c.UnitPrice.IsNegative() {
			return ierr.NewError("invalid pricing config").
				WithHint("Unit price must not be negative").
				Mark(ierr.ErrValidation)
		}

	case types.PRICING_MODEL_TIERED:
		if len(c.Tiers) == 0 {
			return ierr.NewError("invalid pricing config").
				WithHint("Tiered pricing requires at least one tier").
				Mark(ierr.ErrValidation)
		}
		if err := validateTiers(c.Tiers); err != nil {
			return err
		}
	}

	if err := validateVolumeDiscounts(c.VolumeDiscounts); err != nil {
		return err
	}

	return nil
}

// validateVolumeDiscounts enforces a non negative threshold and a percent in
// (0, 100] so a misconfigured rule can never inflate or negate a charge
func validateVolumeDiscounts(discounts []VolumeDiscount) error {
	for i, discount := range discounts {
		if discount.MinQuantity.IsNegative() {
			return ierr.NewError("invalid volume discount").
				WithHint("Volume discount min quantity must not be negative").
				WithReportableDetails(map[string]any{
					"discount_index": i,
					"name":           discount.Name,
				}).
				Mark(ierr.ErrValidation)
		}

		if !discount.DiscountPercent.IsPositive() || discount.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
			return ierr.NewError("invalid volume discount").
				WithHint("Volume discount percent must be greater than 0 and at most 100").
				WithReportableDetails(map[string]any{
					"discount_index":   i,
					"name":             discount.Name,
					"discount_percent": discount.DiscountPercent.String(),
				}).
				Mark(ierr.ErrValidation)
		}
	}

	return nil
}

// validateTiers enforces ascending order, contiguity and that only the last
// tier may be unbounded
func validateTiers(tiers []PriceTier) error {
	for i, tier := range tiers {
		if tier.UnitPrice.IsNegative() {
			return ierr.NewError("invalid price tier").
				WithHint("Tier unit price must not be negative").
				WithReportableDetails(map[string]any{"tier_index": i}).
				Mark(ierr.ErrValidation)
		}

		if tier.MaxQuantity == nil {
			if i != len(tiers)-1 {
				return ierr.NewError("invalid price tier").
					WithHint("Only the last tier may be unbounded").
					WithReportableDetails(map[string]any{"tier_index": i}).
					Mark(ierr.ErrValidation)
			}
			continue
		}

		if tier.MaxQuantity.LessThanOrEqual(tier.MinQuantity) {
			return ierr.NewError("invalid price tier").
				WithHint("Tier max quantity must be greater than min quantity").
				WithReportableDetails(map[string]any{"tier_index": i}).
				Mark(ierr.ErrValidation)
		}

		if i+1 < len(tiers) && !tiers[i+1].MinQuantity.Equal(*tier.MaxQuantity) {
			return ierr.NewError("invalid price tier").
				WithHint("Tiers must be contiguous with no gaps or overlaps").
				WithReportableDetails(map[string]any{
					"tier_index":        i,
					"max_quantity":      tier.MaxQuantity.String(),
					"next_min_quantity": tiers[i+1].MinQuantity.String(),
				}).
				Mark(ierr.ErrValidation)
		}
	}

	return nil
}

// BillingPlan is the usage related configuration of a subscription's plan.
// It is supplied by the caller and consumed read only.
type BillingPlan struct {
	// UsageAllowances maps a metric name to the quantity included free of
	// charge each billing period. Metrics absent from the map have no allowance.
	UsageAllowances map[string]decimal.Decimal `json:"usage_allowances"`

	// UsagePricing maps a pricing key ex "api_calls_overage" to its pricing
	// configuration. Overage metrics without an entry are not billed.
	UsagePricing map[string]PricingConfig `json:"usage_pricing"`
}

// GetUsageAllowance returns the allowance for a metric, defaulting to zero
func (p *BillingPlan) GetUsageAllowance(metricName string) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	if allowance, ok := p.UsageAllowances[metricName]; ok {
		return allowance
	}
	return decimal.Zero
}

// GetUsagePricing returns the pricing configuration for a pricing key.
// The boolean is false when the key has no configuration, which drives the
// skip on missing config behaviour in the rating engine.
func (p *BillingPlan) GetUsagePricing(key string) (PricingConfig, bool) {
	if p == nil {
		return PricingConfig{}, false
	}
	config, ok := p.UsagePricing[key]
	return config, ok
}

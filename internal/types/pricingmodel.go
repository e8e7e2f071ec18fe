package types

import (
	"github.com/samber/lo"

	ierr "github.com/meterwise/meterwise/internal/errors"
)

// PricingModel is the pricing model for an overage charge ex FLAT_FEE, TIERED
type PricingModel string

const (
	// Pricing model for a flat fee per unit
	PRICING_MODEL_FLAT_FEE PricingModel = "FLAT_FEE"

	// Pricing model for tiered pricing
	// ex 0-1000 calls at $0.01, 1000-5000 calls at $0.008
	PRICING_MODEL_TIERED PricingModel = "TIERED"
)

func (m PricingModel) String() string {
	return string(m)
}

func (m PricingModel) Validate() error {
	allowedValues := []PricingModel{
		PRICING_MODEL_FLAT_FEE,
		PRICING_MODEL_TIERED,
	}

	if !lo.Contains(allowedValues, m) {
		return ierr.NewError("invalid pricing model").
			WithHint("Invalid pricing model").
			WithReportableDetails(map[string]any{
				"allowed_values": allowedValues,
				"provided_value": m,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

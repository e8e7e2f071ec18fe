package service

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/meterwise/meterwise/internal/domain/plan"
	"github.com/meterwise/meterwise/internal/domain/usage"
	ierr "github.com/meterwise/meterwise/internal/errors"
	"github.com/meterwise/meterwise/internal/testutil"
	"github.com/meterwise/meterwise/internal/types"
)

type UsageRatingSuite struct {
	testutil.BaseServiceTestSuite
	ctx    context.Context
	rating UsageRatingService
	period types.BillingPeriod
}

func TestUsageRating(t *testing.T) {
	suite.Run(t, new(UsageRatingSuite))
}

func (s *UsageRatingSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.ctx = s.GetContext()
	aggregator := NewUsageAggregatorService(s.GetLogger())
	pricing := NewTieredPricingService(s.GetLogger())
	s.rating = NewUsageRatingService(aggregator, pricing, s.GetConfig(), s.GetLogger())
	s.period = testutil.NewTestBillingPeriod()
}

func flatOveragePlan() *plan.BillingPlan {
	return &plan.BillingPlan{
		UsageAllowances: map[string]decimal.Decimal{
			"api_calls": decimal.NewFromInt(1000),
		},
		UsagePricing: map[string]plan.PricingConfig{
			"api_calls_overage": {
				Model:       types.PRICING_MODEL_FLAT_FEE,
				UnitPrice:   decimal.NewFromFloat(0.01),
				Description: "API calls overage",
				Taxable:     true,
			},
		},
	}
}

func (s *UsageRatingSuite) TestEndToEndFlatOverage() {
	sub := testutil.NewTestSubscription(s.ctx, flatOveragePlan())
	records := []*usage.UsageRecord{
		testutil.NewTestUsageRecord("api_calls", decimal.NewFromInt(1500)),
	}

	result, err := s.rating.RateUsageForSubscription(s.ctx, sub, s.period, records)
	s.NoError(err)
	s.NotNil(result)
	s.Equal(sub.ID, result.SubscriptionID)
	s.Equal("usd", result.Currency)
	s.Len(result.LineItems, 1)
	s.Len(result.SkippedMetrics, 0)

	item := result.LineItems[0]
	s.True(item.Amount.Equal(decimal.NewFromInt(5)), "expected 5.00, got %s", item.Amount)
	s.True(item.Quantity.Equal(decimal.NewFromInt(500)))
	s.True(item.Taxable)
	s.Equal("api_calls_overage", item.MetricName)
	s.Equal("API calls overage (2024-01-01 to 2024-01-31)", item.Description)
	s.NotEmpty(item.ID)
	s.Equal(sub.ID, item.SubscriptionID)
}

func (s *UsageRatingSuite) TestTieredOverage() {
	billingPlan := &plan.BillingPlan{
		UsageAllowances: map[string]decimal.Decimal{
			"api_calls": decimal.NewFromInt(1000),
		},
		UsagePricing: map[string]plan.PricingConfig{
			"api_calls_overage": {
				Model: types.PRICING_MODEL_TIERED,
				Tiers: []plan.PriceTier{
					{
						MinQuantity: decimal.Zero,
						MaxQuantity: lo.ToPtr(decimal.NewFromInt(1000)),
						UnitPrice:   decimal.NewFromFloat(0.01),
					},
					{
						MinQuantity: decimal.NewFromInt(1000),
						MaxQuantity: lo.ToPtr(decimal.NewFromInt(5000)),
						UnitPrice:   decimal.NewFromFloat(0.008),
					},
				},
				Description: "API calls overage",
				Taxable:     true,
			},
		},
	}
	sub := testutil.NewTestSubscription(s.ctx, billingPlan)
	records := []*usage.UsageRecord{
		testutil.NewTestUsageRecord("api_calls", decimal.NewFromInt(4000)),
	}

	result, err := s.rating.RateUsageForSubscription(s.ctx, sub, s.period, records)
	s.NoError(err)
	s.Len(result.LineItems, 1)

	// Overage is 3000: 1000*0.01 + 2000*0.008 = 26.00
	item := result.LineItems[0]
	s.True(item.Amount.Equal(decimal.NewFromInt(26)), "expected 26.00, got %s", item.Amount)
	s.True(item.Quantity.Equal(decimal.NewFromInt(3000)))
}

func (s *UsageRatingSuite) TestTieredOverageWithVolumeDiscount() {
	billingPlan := &plan.BillingPlan{
		UsageAllowances: map[string]decimal.Decimal{
			"api_calls": decimal.NewFromInt(1000),
		},
		UsagePricing: map[string]plan.PricingConfig{
			"api_calls_overage": {
				Model: types.PRICING_MODEL_TIERED,
				Tiers: []plan.PriceTier{
					{
						MinQuantity: decimal.Zero,
						MaxQuantity: lo.ToPtr(decimal.NewFromInt(1000)),
						UnitPrice:   decimal.NewFromFloat(0.01),
					},
					{
						MinQuantity: decimal.NewFromInt(1000),
						UnitPrice:   decimal.NewFromFloat(0.008),
					},
				},
				VolumeDiscounts: []plan.VolumeDiscount{
					{Name: "3k volume", MinQuantity: decimal.NewFromInt(3000), DiscountPercent: decimal.NewFromInt(10)},
				},
				Description: "API calls overage",
				Taxable:     true,
			},
		},
	}
	sub := testutil.NewTestSubscription(s.ctx, billingPlan)
	records := []*usage.UsageRecord{
		testutil.NewTestUsageRecord("api_calls", decimal.NewFromInt(4000)),
	}

	result, err := s.rating.RateUsageForSubscription(s.ctx, sub, s.period, records)
	s.NoError(err)
	s.Len(result.LineItems, 1)

	// Tiered total 26.00, 10% volume discount -> 23.40
	s.True(result.LineItems[0].Amount.Equal(decimal.NewFromFloat(23.40)),
		"expected 23.40, got %s", result.LineItems[0].Amount)
}

func (s *UsageRatingSuite) TestUnconfiguredMetricIsSkippedWithDiagnostics() {
	billingPlan := &plan.BillingPlan{
		UsageAllowances: map[string]decimal.Decimal{
			"sms_sent": decimal.NewFromInt(100),
		},
		// No usage_pricing entry for sms_sent_overage
	}
	sub := testutil.NewTestSubscription(s.ctx, billingPlan)
	records := []*usage.UsageRecord{
		{MeterType: "sms_sent", Quantity: decimal.NewFromInt(250), Unit: "messages"},
	}

	result, err := s.rating.RateUsageForSubscription(s.ctx, sub, s.period, records)
	s.NoError(err)
	s.Len(result.LineItems, 0)
	s.Len(result.SkippedMetrics, 1)

	skipped := result.SkippedMetrics[0]
	s.Equal("sms_sent_overage", skipped.Name)
	s.True(skipped.Quantity.Equal(decimal.NewFromInt(150)))
	s.Equal("no pricing configuration", skipped.Reason)
}

func (s *UsageRatingSuite) TestUnderAllowanceProducesNoCharge() {
	sub := testutil.NewTestSubscription(s.ctx, flatOveragePlan())
	records := []*usage.UsageRecord{
		testutil.NewTestUsageRecord("api_calls", decimal.NewFromInt(800)),
	}

	result, err := s.rating.RateUsageForSubscription(s.ctx, sub, s.period, records)
	s.NoError(err)
	s.Len(result.LineItems, 0)
	s.Len(result.SkippedMetrics, 0)
}

func (s *UsageRatingSuite) TestEmptyUsageIsIdempotent() {
	sub := testutil.NewTestSubscription(s.ctx, flatOveragePlan())

	first, err := s.rating.RateUsageForSubscription(s.ctx, sub, s.period, nil)
	s.NoError(err)
	second, err := s.rating.RateUsageForSubscription(s.ctx, sub, s.period, nil)
	s.NoError(err)

	s.Len(first.LineItems, 0)
	s.Len(second.LineItems, 0)
	s.Equal(first.SkippedMetrics, second.SkippedMetrics)
}

func (s *UsageRatingSuite) TestInvalidPricingConfigIsSkipped() {
	billingPlan := &plan.BillingPlan{
		UsagePricing: map[string]plan.PricingConfig{
			"api_calls_overage": {
				// TIERED with no tiers is malformed and must not bill
				Model:       types.PRICING_MODEL_TIERED,
				Description: "API calls overage",
			},
		},
	}
	sub := testutil.NewTestSubscription(s.ctx, billingPlan)
	records := []*usage.UsageRecord{
		testutil.NewTestUsageRecord("api_calls", decimal.NewFromInt(100)),
	}

	result, err := s.rating.RateUsageForSubscription(s.ctx, sub, s.period, records)
	s.NoError(err)
	s.Len(result.LineItems, 0)
	s.Len(result.SkippedMetrics, 1)
	s.Equal("invalid pricing configuration", result.SkippedMetrics[0].Reason)
}

func (s *UsageRatingSuite) TestMalformedVolumeDiscountIsSkipped() {
	billingPlan := &plan.BillingPlan{
		UsagePricing: map[string]plan.PricingConfig{
			"api_calls_overage": {
				Model: types.PRICING_MODEL_TIERED,
				Tiers: []plan.PriceTier{
					{MinQuantity: decimal.Zero, UnitPrice: decimal.NewFromFloat(0.01)},
				},
				VolumeDiscounts: []plan.VolumeDiscount{
					// Percent over 100 would produce a negative charge
					{Name: "bad", MinQuantity: decimal.NewFromInt(100), DiscountPercent: decimal.NewFromInt(150)},
				},
				Description: "API calls overage",
			},
		},
	}
	sub := testutil.NewTestSubscription(s.ctx, billingPlan)
	records := []*usage.UsageRecord{
		testutil.NewTestUsageRecord("api_calls", decimal.NewFromInt(500)),
	}

	result, err := s.rating.RateUsageForSubscription(s.ctx, sub, s.period, records)
	s.NoError(err)
	s.Len(result.LineItems, 0)
	s.Len(result.SkippedMetrics, 1)
	s.Equal("invalid pricing configuration", result.SkippedMetrics[0].Reason)
}

func (s *UsageRatingSuite) TestNilSubscriptionFails() {
	_, err := s.rating.RateUsageForSubscription(s.ctx, nil, s.period, nil)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *UsageRatingSuite) TestInvalidPeriodFails() {
	sub := testutil.NewTestSubscription(s.ctx, flatOveragePlan())
	badPeriod := types.NewBillingPeriod(
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		types.BILLING_CYCLE_MONTHLY,
	)

	_, err := s.rating.RateUsageForSubscription(s.ctx, sub, badPeriod, nil)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *UsageRatingSuite) TestCalculateUsageSummary() {
	records := []*usage.UsageRecord{
		testutil.NewTestUsageRecord("api_calls", decimal.NewFromInt(1500)),
		testutil.NewTestUsageRecord("api_calls", decimal.NewFromInt(1600)),
		testutil.NewTestUsageRecord("storage_gb", decimal.NewFromInt(62)),
	}

	summary, err := s.rating.CalculateUsageSummary(s.ctx, "subs-1", records, s.period)
	s.NoError(err)
	s.Equal("subs-1", summary.SubscriptionID)
	s.Equal(3, summary.TotalRecords)
	s.Equal(s.period, summary.Period)
	s.Len(summary.UsageMetrics, 2)
	s.True(summary.UsageMetrics["api_calls"].Quantity.Equal(decimal.NewFromInt(3100)))

	// January period is 31 days
	s.True(summary.DailyAverages["api_calls_daily_avg"].Equal(decimal.NewFromInt(100)))
	s.True(summary.DailyAverages["storage_gb_daily_avg"].Equal(decimal.NewFromInt(2)))
}

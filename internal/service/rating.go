package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/meterwise/meterwise/internal/config"
	"github.com/meterwise/meterwise/internal/domain/invoice"
	"github.com/meterwise/meterwise/internal/domain/plan"
	"github.com/meterwise/meterwise/internal/domain/subscription"
	"github.com/meterwise/meterwise/internal/domain/usage"
	ierr "github.com/meterwise/meterwise/internal/errors"
	"github.com/meterwise/meterwise/internal/logger"
	"github.com/meterwise/meterwise/internal/types"
	"github.com/meterwise/meterwise/internal/validator"
)

// SkippedMetric reports an overage metric that was not billed and why.
// Unpriced usage favors under billing over failing the invoice pipeline, but
// the gap is surfaced to the caller instead of being swallowed.
type SkippedMetric struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason"`
}

// RatingResult is the outcome of rating one subscription for one billing period
type RatingResult struct {
	SubscriptionID string              `json:"subscription_id"`
	Currency       string              `json:"currency"`
	LineItems      []*invoice.LineItem `json:"line_items"`
	SkippedMetrics []SkippedMetric     `json:"skipped_metrics,omitempty"`
}

// UsageSummary is a read only reporting aid over a subscription's usage
type UsageSummary struct {
	SubscriptionID string                        `json:"subscription_id"`
	TotalRecords   int                           `json:"total_records"`
	Period         types.BillingPeriod           `json:"period"`
	UsageMetrics   map[string]*usage.UsageMetric `json:"usage_metrics"`
	DailyAverages  map[string]decimal.Decimal    `json:"daily_averages"`
}

type UsageRatingService interface {
	RateUsageForSubscription(ctx context.Context, sub *subscription.Subscription, period types.BillingPeriod, records []*usage.UsageRecord) (*RatingResult, error)
	CalculateUsageSummary(ctx context.Context, subscriptionID string, records []*usage.UsageRecord, period types.BillingPeriod) (*UsageSummary, error)
}

type usageRatingService struct {
	aggregator UsageAggregatorService
	pricing    TieredPricingService
	config     *config.Configuration
	logger     *logger.Logger
}

func NewUsageRatingService(
	aggregator UsageAggregatorService,
	pricing TieredPricingService,
	cfg *config.Configuration,
	logger *logger.Logger,
) UsageRatingService {
	return &usageRatingService{
		aggregator: aggregator,
		pricing:    pricing,
		config:     cfg,
		logger:     logger,
	}
}

// RateUsageForSubscription produces the billable line items for one
// subscription over one billing period. The pipeline is linear:
// aggregate -> apply allowances -> price each overage metric.
func (s *usageRatingService) RateUsageForSubscription(
	ctx context.Context,
	sub *subscription.Subscription,
	period types.BillingPeriod,
	records []*usage.UsageRecord,
) (*RatingResult, error) {
	if sub == nil {
		return nil, ierr.NewError("subscription is required").
			WithHint("A subscription with a billing plan must be provided").
			Mark(ierr.ErrValidation)
	}
	if err := validator.ValidateRequest(sub); err != nil {
		return nil, err
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	result := &RatingResult{
		SubscriptionID: sub.ID,
		Currency:       s.resolveCurrency(sub),
		LineItems:      []*invoice.LineItem{},
	}

	metrics, err := s.aggregator.AggregateUsageForPeriod(ctx, sub.ID, period, records)
	if err != nil {
		return nil, err
	}

	overages := s.aggregator.ApplyUsageAllowances(ctx, metrics, sub.BillingPlan)
	if len(overages) == 0 {
		return result, nil
	}

	// Iterate overage metrics in a stable order so line items come out
	// deterministic across runs
	names := make([]string, 0, len(overages))
	for name := range overages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		metric := overages[name]

		pricingConfig, ok := getUsagePricingConfig(sub.BillingPlan, metric.Name)
		if !ok {
			s.skipMetric(ctx, result, metric, "no pricing configuration")
			continue
		}
		if err := pricingConfig.Validate(); err != nil {
			s.skipMetric(ctx, result, metric, "invalid pricing configuration")
			continue
		}

		amount := s.calculateOverageCharge(ctx, metric, pricingConfig)
		amount = amount.Round(types.GetCurrencyPrecision(result.Currency))

		result.LineItems = append(result.LineItems, &invoice.LineItem{
			ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LINE_ITEM),
			SubscriptionID: sub.ID,
			MetricName:     metric.Name,
			Description:    formatUsageDescription(metric, pricingConfig),
			Currency:       result.Currency,
			Amount:         amount,
			Quantity:       metric.Quantity,
			Taxable:        pricingConfig.Taxable,
		})
	}

	s.logger.WithContext(ctx).Infof(
		"rated subscription %s: %d line items, %d skipped metrics",
		sub.ID, len(result.LineItems), len(result.SkippedMetrics),
	)

	return result, nil
}

// calculateOverageCharge dispatches on the pricing model. The switch is
// exhaustive over types.PricingModel; Validate has already rejected anything
// else.
func (s *usageRatingService) calculateOverageCharge(
	ctx context.Context,
	metric *usage.UsageMetric,
	pricingConfig plan.PricingConfig,
) decimal.Decimal {
	switch pricingConfig.Model {
	case types.PRICING_MODEL_FLAT_FEE:
		return metric.Quantity.Mul(pricingConfig.UnitPrice)

	case types.PRICING_MODEL_TIERED:
		tierResult := s.pricing.CalculateTieredPricing(ctx, metric.Quantity, pricingConfig.Tiers)
		charge := tierResult.TotalCharge
		if len(pricingConfig.VolumeDiscounts) > 0 {
			charge, _ = s.pricing.CalculateVolumeDiscount(ctx, charge, metric.Quantity, pricingConfig.VolumeDiscounts)
		}
		return charge
	}

	return decimal.Zero
}

// CalculateUsageSummary aggregates the records and daily averages for
// reporting. It has no side effects and bills nothing.
func (s *usageRatingService) CalculateUsageSummary(
	ctx context.Context,
	subscriptionID string,
	records []*usage.UsageRecord,
	period types.BillingPeriod,
) (*UsageSummary, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	metrics, err := s.aggregator.AggregateUsageForPeriod(ctx, subscriptionID, period, records)
	if err != nil {
		return nil, err
	}

	averages, err := s.aggregator.CalculateAverageUsage(ctx, records, period.Days())
	if err != nil {
		return nil, err
	}

	return &UsageSummary{
		SubscriptionID: subscriptionID,
		TotalRecords:   len(records),
		Period:         period,
		UsageMetrics:   metrics,
		DailyAverages:  averages,
	}, nil
}

func (s *usageRatingService) resolveCurrency(sub *subscription.Subscription) string {
	if sub.Currency != "" {
		return sub.Currency
	}
	return s.config.Rating.DefaultCurrency
}

func (s *usageRatingService) skipMetric(ctx context.Context, result *RatingResult, metric *usage.UsageMetric, reason string) {
	result.SkippedMetrics = append(result.SkippedMetrics, SkippedMetric{
		Name:     metric.Name,
		Quantity: metric.Quantity,
		Reason:   reason,
	})
	if s.config.Rating.LogSkippedMetrics {
		s.logger.WithContext(ctx).Warnf(
			"skipping overage metric %s (quantity %s): %s",
			metric.Name, metric.Quantity.String(), reason,
		)
	}
}

// formatUsageDescription renders the invoice facing description for an
// overage charge ex "API usage overage (2024-01-01 to 2024-01-31)"
func formatUsageDescription(metric *usage.UsageMetric, pricingConfig plan.PricingConfig) string {
	return fmt.Sprintf("%s (%s)", pricingConfig.Description, metric.Period.String())
}

// getUsagePricingConfig looks up the pricing configuration for an overage
// metric key, reporting absence rather than erroring
func getUsagePricingConfig(billingPlan *plan.BillingPlan, key string) (plan.PricingConfig, bool) {
	return billingPlan.GetUsagePricing(key)
}

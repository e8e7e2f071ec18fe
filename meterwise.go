// Package meterwise is the consumable surface of the usage rating engine.
// Callers construct the services here, feed them subscriptions, billing
// periods and usage records, and receive invoice ready line items back.
// All heavy lifting lives in internal packages; this package re-exports the
// types and constructors an embedding service needs.
package meterwise

import (
	"github.com/meterwise/meterwise/internal/config"
	"github.com/meterwise/meterwise/internal/domain/invoice"
	"github.com/meterwise/meterwise/internal/domain/plan"
	"github.com/meterwise/meterwise/internal/domain/subscription"
	"github.com/meterwise/meterwise/internal/domain/usage"
	"github.com/meterwise/meterwise/internal/logger"
	"github.com/meterwise/meterwise/internal/service"
	"github.com/meterwise/meterwise/internal/types"
	"github.com/meterwise/meterwise/internal/validator"
)

// Domain and value types consumed and produced by the engine
type (
	BillingPeriod  = types.BillingPeriod
	BillingCycle   = types.BillingCycle
	PricingModel   = types.PricingModel
	UsageRecord    = usage.UsageRecord
	UsageMetric    = usage.UsageMetric
	BillingPlan    = plan.BillingPlan
	PricingConfig  = plan.PricingConfig
	PriceTier      = plan.PriceTier
	VolumeDiscount = plan.VolumeDiscount
	Subscription   = subscription.Subscription
	LineItem       = invoice.LineItem
)

// Service interfaces and their result types
type (
	UsageAggregatorService    = service.UsageAggregatorService
	TieredPricingService      = service.TieredPricingService
	UsageRatingService        = service.UsageRatingService
	RatingResult              = service.RatingResult
	SkippedMetric             = service.SkippedMetric
	UsageSummary              = service.UsageSummary
	TieredPricingResult       = service.TieredPricingResult
	TierDetail                = service.TierDetail
	VolumeDiscountApplication = service.VolumeDiscountApplication
)

// Configuration and logging
type (
	Configuration = config.Configuration
	Logger        = logger.Logger
)

const (
	BILLING_CYCLE_MONTHLY   = types.BILLING_CYCLE_MONTHLY
	BILLING_CYCLE_QUARTERLY = types.BILLING_CYCLE_QUARTERLY
	BILLING_CYCLE_ANNUAL    = types.BILLING_CYCLE_ANNUAL

	PRICING_MODEL_FLAT_FEE = types.PRICING_MODEL_FLAT_FEE
	PRICING_MODEL_TIERED   = types.PRICING_MODEL_TIERED
)

// NewBillingPeriod creates a billing period for the given window and cycle
var NewBillingPeriod = types.NewBillingPeriod

// NewConfig loads configuration from file and environment
func NewConfig() (*Configuration, error) {
	return config.NewConfig()
}

// GetDefaultConfig returns a default configuration suitable for embedding
// the engine without a config file
func GetDefaultConfig() *Configuration {
	return config.GetDefaultConfig()
}

// NewLogger creates a logger honoring the configured level
func NewLogger(cfg *Configuration) (*Logger, error) {
	return logger.NewLogger(cfg)
}

// NewUsageAggregatorService constructs the usage aggregator
func NewUsageAggregatorService(log *Logger) UsageAggregatorService {
	return service.NewUsageAggregatorService(log)
}

// NewTieredPricingService constructs the tiered pricing calculator
func NewTieredPricingService(log *Logger) TieredPricingService {
	return service.NewTieredPricingService(log)
}

// NewUsageRatingService wires the aggregator and pricing services into the
// rating engine. It also ensures the request validator is initialized so a
// consumer does not need to bootstrap it separately.
func NewUsageRatingService(cfg *Configuration, log *Logger) UsageRatingService {
	if validator.GetValidator() == nil {
		validator.NewValidator()
	}

	aggregator := service.NewUsageAggregatorService(log)
	pricing := service.NewTieredPricingService(log)
	return service.NewUsageRatingService(aggregator, pricing, cfg, log)
}

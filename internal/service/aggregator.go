package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/meterwise/meterwise/internal/domain/plan"
	"github.com/meterwise/meterwise/internal/domain/usage"
	ierr "github.com/meterwise/meterwise/internal/errors"
	"github.com/meterwise/meterwise/internal/logger"
	"github.com/meterwise/meterwise/internal/types"
)

// OverageSuffix is appended to a metric name once its allowance has been
// applied. The same key addresses the pricing configuration in the plan.
const OverageSuffix = "_overage"

// DailyAverageSuffix is appended to metric names in daily average reports
const DailyAverageSuffix = "_daily_avg"

type UsageAggregatorService interface {
	AggregateUsageForPeriod(ctx context.Context, subscriptionID string, period types.BillingPeriod, records []*usage.UsageRecord) (map[string]*usage.UsageMetric, error)
	ApplyUsageAllowances(ctx context.Context, metrics map[string]*usage.UsageMetric, billingPlan *plan.BillingPlan) map[string]*usage.UsageMetric
	CalculateAverageUsage(ctx context.Context, records []*usage.UsageRecord, periodDays int) (map[string]decimal.Decimal, error)
}

type usageAggregatorService struct {
	logger *logger.Logger
}

func NewUsageAggregatorService(logger *logger.Logger) UsageAggregatorService {
	return &usageAggregatorService{logger: logger}
}

// AggregateUsageForPeriod groups raw usage records by metric name into one
// UsageMetric per distinct name. Quantities are summed with full decimal
// precision and the first seen unit per name is kept.
func (s *usageAggregatorService) AggregateUsageForPeriod(
	ctx context.Context,
	subscriptionID string,
	period types.BillingPeriod,
	records []*usage.UsageRecord,
) (map[string]*usage.UsageMetric, error) {
	metrics := make(map[string]*usage.UsageMetric)

	for _, record := range records {
		if record == nil {
			continue
		}
		if err := record.Validate(); err != nil {
			return nil, ierr.WithError(err).
				WithMessage(fmt.Sprintf("failed to aggregate usage for subscription %s", subscriptionID)).
				Mark(ierr.ErrValidation)
		}

		name := record.MetricName()
		metric, ok := metrics[name]
		if !ok {
			metric = &usage.UsageMetric{
				Name:     name,
				Quantity: decimal.Zero,
				Unit:     record.Unit,
				Period:   period,
			}
			metrics[name] = metric
		}
		metric.Quantity = metric.Quantity.Add(record.Quantity)
	}

	s.logger.WithContext(ctx).Debugf(
		"aggregated %d usage records into %d metrics for subscription %s",
		len(records), len(metrics), subscriptionID,
	)

	return metrics, nil
}

// ApplyUsageAllowances subtracts the plan allowance from each aggregated
// metric and returns only the metrics with usage beyond their allowance,
// renamed with the overage suffix. Metrics at or under allowance are dropped.
func (s *usageAggregatorService) ApplyUsageAllowances(
	ctx context.Context,
	metrics map[string]*usage.UsageMetric,
	billingPlan *plan.BillingPlan,
) map[string]*usage.UsageMetric {
	overages := make(map[string]*usage.UsageMetric)

	for name, metric := range metrics {
		allowance := billingPlan.GetUsageAllowance(name)
		if metric.Quantity.LessThanOrEqual(allowance) {
			continue
		}

		overageName := name + OverageSuffix
		overages[overageName] = &usage.UsageMetric{
			Name:     overageName,
			Quantity: metric.Quantity.Sub(allowance),
			Unit:     metric.Unit,
			Period:   metric.Period,
		}
	}

	return overages
}

// CalculateAverageUsage computes the simple daily average per metric name.
// Degenerate inputs (no records, non positive period) yield an empty map.
// Malformed records fail fast with the same boundary policy as
// AggregateUsageForPeriod.
func (s *usageAggregatorService) CalculateAverageUsage(
	ctx context.Context,
	records []*usage.UsageRecord,
	periodDays int,
) (map[string]decimal.Decimal, error) {
	averages := make(map[string]decimal.Decimal)
	if len(records) == 0 || periodDays <= 0 {
		return averages, nil
	}

	totals := make(map[string]decimal.Decimal)
	for _, record := range records {
		if record == nil {
			continue
		}
		if err := record.Validate(); err != nil {
			return nil, ierr.WithError(err).
				WithMessage("failed to calculate average usage").
				Mark(ierr.ErrValidation)
		}
		name := record.MetricName()
		totals[name] = totals[name].Add(record.Quantity)
	}

	days := decimal.NewFromInt(int64(periodDays))
	for name, total := range totals {
		averages[name+DailyAverageSuffix] = total.Div(days)
	}

	return averages, nil
}

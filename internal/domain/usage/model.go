package usage

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/meterwise/meterwise/internal/errors"
	"github.com/meterwise/meterwise/internal/types"
)

// UsageRecord is a single metered usage observation supplied by the caller.
// Records are consumed read only and are never mutated by the engine.
type UsageRecord struct {
	// MeterType is the primary identifier of the meter that produced the record
	MeterType string `json:"meter_type,omitempty"`

	// ServiceIdentifier is the fallback identifier used when MeterType is not set.
	// Legacy ingestion paths only populate this field.
	ServiceIdentifier string `json:"service_identifier,omitempty"`

	// Quantity is the measured amount, always non negative
	Quantity decimal.Decimal `json:"quantity"`

	// Unit is the unit of measure ex calls, GB, minutes
	Unit string `json:"unit,omitempty"`

	// RecordedAt is when the observation was captured
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

// MetricName resolves the metric this record counts towards.
// MeterType wins when present, ServiceIdentifier is the fallback.
func (r *UsageRecord) MetricName() string {
	if r.MeterType != "" {
		return r.MeterType
	}
	return r.ServiceIdentifier
}

// Validate fails fast on malformed records at the aggregation boundary
// rather than letting bad quantities propagate into invoice totals.
func (r *UsageRecord) Validate() error {
	if r.MetricName() == "" {
		return ierr.NewError("invalid usage record").
			WithHint("Usage record must have a meter type or service identifier").
			Mark(ierr.ErrValidation)
	}

	if r.Quantity.IsNegative() {
		return ierr.NewError("invalid usage record").
			WithHint("Usage record quantity must not be negative").
			WithReportableDetails(map[string]any{
				"metric_name": r.MetricName(),
				"quantity":    r.Quantity.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

// UsageMetric is the aggregated total for one metric within one billing period
type UsageMetric struct {
	// Name is the resolved metric name, or "{name}_overage" after allowances
	Name string `json:"name"`

	// Quantity is the exact decimal sum of all matching record quantities
	Quantity decimal.Decimal `json:"quantity"`

	// Unit is the first seen unit for the metric within the period
	Unit string `json:"unit,omitempty"`

	// Period is the billing period the metric was aggregated over
	Period types.BillingPeriod `json:"period"`
}

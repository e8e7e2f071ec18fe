package testutil

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meterwise/meterwise/internal/domain/plan"
	"github.com/meterwise/meterwise/internal/domain/subscription"
	"github.com/meterwise/meterwise/internal/domain/usage"
	"github.com/meterwise/meterwise/internal/types"
)

// NewTestBillingPeriod returns a monthly period covering January 2024
func NewTestBillingPeriod() types.BillingPeriod {
	return types.NewBillingPeriod(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		types.BILLING_CYCLE_MONTHLY,
	)
}

// NewTestSubscription returns a subscription wired to the given billing plan
func NewTestSubscription(ctx context.Context, billingPlan *plan.BillingPlan) *subscription.Subscription {
	return &subscription.Subscription{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		CustomerID:  types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		PlanID:      types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Currency:    "usd",
		BillingPlan: billingPlan,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
}

// NewTestUsageRecord returns a usage record for the given meter and quantity
func NewTestUsageRecord(meterType string, quantity decimal.Decimal) *usage.UsageRecord {
	recordedAt := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	return &usage.UsageRecord{
		MeterType:  meterType,
		Quantity:   quantity,
		Unit:       "calls",
		RecordedAt: &recordedAt,
	}
}

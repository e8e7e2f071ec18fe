package subscription

import (
	"github.com/meterwise/meterwise/internal/domain/plan"
	"github.com/meterwise/meterwise/internal/types"
)

// Subscription is the caller supplied view of a customer subscription.
// The engine only reads the attached billing plan configuration; lifecycle
// management of subscriptions is owned by the caller.
type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `json:"id" validate:"required"`

	// CustomerID is the identifier of the customer that owns the subscription
	CustomerID string `json:"customer_id"`

	// PlanID is the identifier of the plan the subscription is on
	PlanID string `json:"plan_id"`

	// Currency 3 digit ISO currency code in lowercase ex usd, eur, gbp
	Currency string `json:"currency"`

	// BillingPlan carries the usage allowances and pricing configuration
	BillingPlan *plan.BillingPlan `json:"billing_plan" validate:"required"`

	types.BaseModel
}

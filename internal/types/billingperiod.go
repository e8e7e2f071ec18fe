package types

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	ierr "github.com/meterwise/meterwise/internal/errors"
)

// BillingCycle is the cadence at which a subscription is invoiced ex MONTHLY, ANNUAL
type BillingCycle string

const (
	BILLING_CYCLE_MONTHLY   BillingCycle = "MONTHLY"
	BILLING_CYCLE_QUARTERLY BillingCycle = "QUARTERLY"
	BILLING_CYCLE_ANNUAL    BillingCycle = "ANNUAL"
)

func (c BillingCycle) String() string {
	return string(c)
}

func (c BillingCycle) Validate() error {
	allowedValues := []BillingCycle{
		BILLING_CYCLE_MONTHLY,
		BILLING_CYCLE_QUARTERLY,
		BILLING_CYCLE_ANNUAL,
	}

	if !lo.Contains(allowedValues, c) {
		return ierr.NewError("invalid billing cycle").
			WithHint("Invalid billing cycle").
			WithReportableDetails(map[string]any{
				"allowed_values": allowedValues,
				"provided_value": c,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

// BillingPeriod is the date window usage is aggregated over for one invoice cycle.
// It is a value type and is never mutated after construction.
type BillingPeriod struct {
	StartDate time.Time    `json:"start_date"`
	EndDate   time.Time    `json:"end_date"`
	Cycle     BillingCycle `json:"cycle"`
}

// NewBillingPeriod creates a billing period for the given window and cycle
func NewBillingPeriod(start, end time.Time, cycle BillingCycle) BillingPeriod {
	return BillingPeriod{
		StartDate: start.UTC(),
		EndDate:   end.UTC(),
		Cycle:     cycle,
	}
}

func (p BillingPeriod) Validate() error {
	if p.StartDate.After(p.EndDate) {
		return ierr.NewError("invalid billing period").
			WithHint("Billing period start date must not be after end date").
			WithReportableDetails(map[string]any{
				"start_date": p.StartDate,
				"end_date":   p.EndDate,
			}).
			Mark(ierr.ErrValidation)
	}

	if err := p.Cycle.Validate(); err != nil {
		return err
	}

	return nil
}

// Days returns the number of calendar days covered by the period, inclusive of
// the start day. A period starting and ending on the same day counts as 1 day.
func (p BillingPeriod) Days() int {
	return int(p.EndDate.Sub(p.StartDate).Hours()/24) + 1
}

// String formats the period for line item descriptions ex "2024-01-01 to 2024-01-31"
func (p BillingPeriod) String() string {
	return fmt.Sprintf("%s to %s", p.StartDate.Format(time.DateOnly), p.EndDate.Format(time.DateOnly))
}

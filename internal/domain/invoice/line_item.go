package invoice

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/meterwise/meterwise/internal/types"
)

// LineItem is one billable entry produced by the rating engine, ready for
// the caller's invoice assembly. Amounts are stored in main currency units
// (e.g., 1.00 = $1.00).
type LineItem struct {
	// ID is the unique identifier for the line item
	ID string `json:"id"`

	// SubscriptionID is the subscription the charge belongs to
	SubscriptionID string `json:"subscription_id"`

	// MetricName is the overage metric the charge was rated from
	MetricName string `json:"metric_name"`

	// Description of the charge including the billing period
	Description string `json:"description"`

	// Currency 3 digit ISO currency code in lowercase ex usd, eur, gbp
	Currency string `json:"currency"`

	// Amount is the charge rounded to the currency precision
	Amount decimal.Decimal `json:"amount"`

	// Quantity is the billed overage quantity
	Quantity decimal.Decimal `json:"quantity"`

	// Taxable marks whether the charge is subject to tax
	Taxable bool `json:"taxable"`
}

// FormatAmountToString formats the amount to string
func (li *LineItem) FormatAmountToString() string {
	return li.Amount.String()
}

// FormatAmountToStringWithPrecision formats the amount to string
// It rounds off the amount according to currency precision
func (li *LineItem) FormatAmountToStringWithPrecision() string {
	return li.Amount.Round(types.GetCurrencyPrecision(li.Currency)).String()
}

// GetDisplayAmount returns the amount in the currency ex $12.00
func (li *LineItem) GetDisplayAmount() string {
	return fmt.Sprintf("%s%s", types.GetCurrencySymbol(li.Currency), li.FormatAmountToStringWithPrecision())
}

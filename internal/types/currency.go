package types

import "strings"

// CurrencyConfig holds the display and rounding configuration for a currency
type CurrencyConfig struct {
	Symbol    string
	Precision int32
}

// DEFAULT_CURRENCY_PRECISION is used for currencies not present in the map
const DEFAULT_CURRENCY_PRECISION int32 = 2

// CURRENCY_CONFIG is a map of 3 digit ISO currency codes to their configuration
var CURRENCY_CONFIG = map[string]CurrencyConfig{
	"usd": {Symbol: "$", Precision: 2},
	"eur": {Symbol: "€", Precision: 2},
	"gbp": {Symbol: "£", Precision: 2},
	"aud": {Symbol: "AU$", Precision: 2},
	"cad": {Symbol: "CA$", Precision: 2},
	"inr": {Symbol: "₹", Precision: 2},
	"jpy": {Symbol: "¥", Precision: 0},
	"krw": {Symbol: "₩", Precision: 0},
	"sgd": {Symbol: "S$", Precision: 2},
	"brl": {Symbol: "R$", Precision: 2},
	"mxn": {Symbol: "MX$", Precision: 2},
	"zar": {Symbol: "R", Precision: 2},
}

// GetCurrencyConfig returns the configuration for a given currency code
// falling back to a 2 decimal place default for unknown currencies
func GetCurrencyConfig(code string) CurrencyConfig {
	if config, ok := CURRENCY_CONFIG[strings.ToLower(code)]; ok {
		return config
	}
	return CurrencyConfig{Symbol: code, Precision: DEFAULT_CURRENCY_PRECISION}
}

// GetCurrencyPrecision returns the number of decimal places for a currency
func GetCurrencyPrecision(code string) int32 {
	return GetCurrencyConfig(code).Precision
}

// GetCurrencySymbol returns the symbol for a given currency code
// if the code is not found, it returns the code itself
func GetCurrencySymbol(code string) string {
	return GetCurrencyConfig(code).Symbol
}

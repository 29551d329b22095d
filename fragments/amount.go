package fragments

import (
	"fmt"
	"strconv"
)

// currencySymbols maps common ISO 4217 numeric codes to display symbols.
var currencySymbols = map[string]string{
	"840": "$",
	"978": "€",
	"826": "£",
}

// FormatAmount renders a purchase amount (minor units, exponent 2) and a
// numeric currency code for display inside challenge fragments.
func FormatAmount(amount, currency string) string {
	minor, err := strconv.ParseInt(amount, 10, 64)
	if err != nil {
		return amount
	}
	value := fmt.Sprintf("%d.%02d", minor/100, minor%100)
	if symbol, ok := currencySymbols[currency]; ok {
		return symbol + value
	}
	if currency == "" {
		return value
	}
	return value + " " + currency
}

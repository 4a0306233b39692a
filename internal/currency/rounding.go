package currency

import "github.com/shopspring/decimal"

// RoundMoney rounds a monetary amount half-up to 2 decimal places for display.
func RoundMoney(amount float64) decimal.Decimal {
	return decimal.NewFromFloat(amount).Round(2)
}

package models

import "github.com/shopspring/decimal"

func init() {
	// Amounts travel as JSON numbers; the dashboards do arithmetic on them.
	decimal.MarshalJSONWithoutQuotes = true
}

var hundred = decimal.NewFromInt(100)

// Percent returns part/whole*100 rounded to two places, or zero when whole
// is not positive.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

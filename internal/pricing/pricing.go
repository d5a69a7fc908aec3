// Package pricing computes what the shopper pays.
//
// The displayed unit price is price × (1 + discount/100) rounded to a whole
// currency unit. Totals round each line first and sum afterwards.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/nirmalhandloom/storefront/internal/models"
)

var hundred = decimal.NewFromInt(100)

// UnitPrice returns the rounded per-unit price for a price and discount percentage.
func UnitPrice(price, discountPercent float64) int64 {
	p := decimal.NewFromFloat(price)
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(discountPercent).Div(hundred))
	return p.Mul(factor).Round(0).IntPart()
}

func LineTotal(item models.LineItem) int64 {
	return UnitPrice(item.Price, item.Discount) * int64(item.Quantity)
}

// Total sums the rounded line totals.
func Total(items []models.LineItem) int64 {
	var total int64
	for _, it := range items {
		total += LineTotal(it)
	}
	return total
}

// DisplayPrice is the unit price shown on product cards and details.
func DisplayPrice(p models.Product) int64 {
	return UnitPrice(p.Price, p.Discount)
}

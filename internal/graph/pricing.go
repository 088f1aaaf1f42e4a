package graph

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// UnitPrice is the price a variant is sold at: the discounted price when a discount is
// present, the list price otherwise. A missing discounted price is derived from the percentage.
func UnitPrice(v Variance) int64 {
	if v.Discount == nil || *v.Discount <= 0 {
		return v.Price
	}
	if v.PriceAfterDiscount != nil {
		return *v.PriceAfterDiscount
	}
	pct := decimal.NewFromInt(int64(*v.Discount))
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	factor := hundred.Sub(pct).Div(hundred)
	return decimal.NewFromInt(v.Price).Mul(factor).Round(0).IntPart()
}

// SumSubtotals totals the order items of an order snapshot.
func SumSubtotals(items map[uuid.UUID]OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Subtotal
	}
	return total
}

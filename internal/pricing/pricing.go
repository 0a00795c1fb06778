// Package pricing computes order totals. The same calculation backs the cart
// quote shown to shoppers and the amounts persisted when an order is created.
package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	// TaxRate is the flat GST rate applied to the subtotal.
	TaxRate = decimal.RequireFromString("0.18")
	// FreeShippingThreshold must be strictly exceeded for free shipping.
	FreeShippingThreshold = decimal.NewFromInt(5000)
	// FlatShippingFee applies at or below the threshold.
	FlatShippingFee = decimal.NewFromInt(100)
)

type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFlat       DiscountKind = "flat"
)

// Line is one cart or order line. UnitPrice is the price captured when the
// item was added, not the current catalog price.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Discount is either a flat amount or a fraction of the subtotal (0.10 = 10%).
type Discount struct {
	Code  string          `json:"code,omitempty"`
	Kind  DiscountKind    `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

type Breakdown struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"gst"`
	ShippingCost   decimal.Decimal `json:"shipping"`
	DiscountAmount decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
}

// Calculate is pure: the same lines and discount always produce the same
// breakdown. Total is exactly subtotal + tax + shipping - discount. The
// discount is capped at the gross amount so the total never drops below zero.
func Calculate(lines []Line, discount *Discount) Breakdown {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	tax := subtotal.Mul(TaxRate).Round(0)

	shipping := FlatShippingFee
	if subtotal.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	gross := subtotal.Add(tax).Add(shipping)

	off := discountAmount(subtotal, discount)
	if off.GreaterThan(gross) {
		off = gross
	}

	return Breakdown{
		Subtotal:       subtotal,
		TaxAmount:      tax,
		ShippingCost:   shipping,
		DiscountAmount: off,
		Total:          gross.Sub(off),
	}
}

func discountAmount(subtotal decimal.Decimal, d *Discount) decimal.Decimal {
	if d == nil || !d.Value.IsPositive() {
		return decimal.Zero
	}
	switch d.Kind {
	case DiscountFlat:
		return d.Value
	case DiscountPercentage:
		return subtotal.Mul(d.Value).Round(0)
	default:
		return decimal.Zero
	}
}

// ToMinorUnits converts a currency amount to the smallest unit (paise).
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

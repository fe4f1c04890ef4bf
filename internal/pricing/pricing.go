// Package pricing derives cart and order totals from effective unit prices.
//
// Amounts are in the catalog's pricing unit (rupees). Sums are done in
// decimal so that subtotal equals the exact sum of price × quantity, and tax
// is rounded half-up to a whole unit.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"storefront-service/internal/entity"
)

const (
	FreeDeliveryThreshold = 999
	DeliveryFee           = 49
	PromoCode             = "NUTRILOCAL"
	PromoDiscount         = 100

	// TotalTolerance is how far a client-claimed total may drift from the
	// server total before the order is rejected.
	TotalTolerance = 1.0
	// PriceTolerance applies to a single claimed unit price.
	PriceTolerance = 0.01
)

var taxRate = decimal.RequireFromString("0.05")

// Line is one priced cart or order line.
type Line struct {
	UnitPrice float64
	Quantity  int
}

// LineFor prices qty units of p at its effective price.
func LineFor(p entity.Product, qty int) Line {
	return Line{UnitPrice: p.EffectivePrice(), Quantity: qty}
}

// IsPromoCode reports whether code is the storefront promo, ignoring case and
// surrounding spaces.
func IsPromoCode(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), PromoCode)
}

// Summarize computes subtotal, delivery, tax and total. When promo is true the
// flat promo discount is subtracted from the total afterwards.
func Summarize(lines []Line, promo bool) entity.CartSummary {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	delivery := decimal.NewFromInt(DeliveryFee)
	if subtotal.GreaterThanOrEqual(decimal.NewFromInt(FreeDeliveryThreshold)) {
		delivery = decimal.Zero
	}

	// Round is half away from zero, which is half-up for non-negative amounts.
	tax := subtotal.Mul(taxRate).Round(0)
	total := subtotal.Add(delivery).Add(tax)

	discount := decimal.Zero
	if promo {
		discount = decimal.NewFromInt(PromoDiscount)
		total = total.Sub(discount)
	}

	return entity.CartSummary{
		Subtotal: subtotal.InexactFloat64(),
		Delivery: delivery.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Discount: discount.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}
}

// WithinTolerance reports whether claimed is within tol of actual.
func WithinTolerance(claimed, actual, tol float64) bool {
	diff := decimal.NewFromFloat(claimed).Sub(decimal.NewFromFloat(actual)).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(tol))
}

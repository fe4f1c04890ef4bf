package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront-service/internal/entity"
)

func ptr(f float64) *float64 { return &f }

func TestEffectivePrice(t *testing.T) {
	assert.Equal(t, 600.0, entity.Product{Price: 600}.EffectivePrice())
	assert.Equal(t, 400.0, entity.Product{Price: 500, SalePrice: ptr(400)}.EffectivePrice())
}

func TestSummarizeScenario(t *testing.T) {
	a := entity.Product{ID: 1, Price: 600}
	b := entity.Product{ID: 2, Price: 500, SalePrice: ptr(400)}

	got := Summarize([]Line{LineFor(a, 1), LineFor(b, 2)}, false)

	assert.Equal(t, entity.CartSummary{Subtotal: 1400, Delivery: 0, Tax: 70, Total: 1470}, got)
}

func TestSummarizeDeliveryBoundary(t *testing.T) {
	tests := []struct {
		subtotal float64
		delivery float64
	}{
		{0, 49},
		{998, 49},
		{999, 0},
		{1000, 0},
	}
	for _, tt := range tests {
		got := Summarize([]Line{{UnitPrice: tt.subtotal, Quantity: 1}}, false)
		assert.Equal(t, tt.delivery, got.Delivery, "subtotal %v", tt.subtotal)
	}
}

func TestSummarizeTaxRoundsHalfUp(t *testing.T) {
	tests := []struct {
		subtotal float64
		tax      float64
	}{
		{10, 1},  // 0.5
		{30, 2},  // 1.5
		{50, 3},  // 2.5
		{1400, 70},
		{549, 27}, // 27.45
	}
	for _, tt := range tests {
		got := Summarize([]Line{{UnitPrice: tt.subtotal, Quantity: 1}}, false)
		assert.Equal(t, tt.tax, got.Tax, "subtotal %v", tt.subtotal)
		assert.Equal(t, tt.subtotal+got.Delivery+tt.tax, got.Total)
	}
}

func TestSummarizeExactSubtotal(t *testing.T) {
	got := Summarize([]Line{{UnitPrice: 0.1, Quantity: 3}, {UnitPrice: 0.2, Quantity: 1}}, false)
	assert.Equal(t, 0.5, got.Subtotal)
}

func TestSummarizePromo(t *testing.T) {
	got := Summarize([]Line{{UnitPrice: 1400, Quantity: 1}}, true)
	assert.Equal(t, 100.0, got.Discount)
	assert.Equal(t, 1370.0, got.Total)
}

func TestIsPromoCode(t *testing.T) {
	assert.True(t, IsPromoCode("NUTRILOCAL"))
	assert.True(t, IsPromoCode(" nutrilocal "))
	assert.False(t, IsPromoCode("NUTRI"))
	assert.False(t, IsPromoCode(""))
}

func TestWithinTolerance(t *testing.T) {
	assert.True(t, WithinTolerance(1470, 1470, TotalTolerance))
	assert.True(t, WithinTolerance(1471, 1470, TotalTolerance))
	assert.False(t, WithinTolerance(1372, 1470, TotalTolerance))
	assert.False(t, WithinTolerance(549.5, 549, PriceTolerance))
}

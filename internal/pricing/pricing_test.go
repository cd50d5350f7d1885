package pricing_test

import (
	"testing"

	"github.com/Semzy1/Log-In-page-main/internal/entities"
	"github.com/Semzy1/Log-In-page-main/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cfg = pricing.Config{
	FlatShippingFee:       2500,
	FreeShippingThreshold: 50000,
}

func product(id string, price int64, qty int) entities.Product {
	return entities.Product{ID: id, Title: "product " + id, Price: price, Quantity: qty, TrackQuantity: true, Active: true}
}

func TestBuildQuote(t *testing.T) {
	testCases := []struct {
		name         string
		items        []pricing.RequestedItem
		wantSubtotal int64
		wantTax      int64
		wantShipping int64
		wantTotal    int64
		wantErr      error
	}{
		{
			name: "single line below free shipping threshold",
			items: []pricing.RequestedItem{
				{Product: product("a", 10000, 10), Quantity: 2},
			},
			wantSubtotal: 20000,
			wantTax:      1500,
			wantShipping: 2500,
			wantTotal:    24000,
		},
		{
			name: "subtotal above threshold ships free",
			items: []pricing.RequestedItem{
				{Product: product("a", 30000, 10), Quantity: 2},
			},
			wantSubtotal: 60000,
			wantTax:      4500,
			wantShipping: 0,
			wantTotal:    64500,
		},
		{
			name: "subtotal exactly at threshold still pays shipping",
			items: []pricing.RequestedItem{
				{Product: product("a", 50000, 10), Quantity: 1},
			},
			wantSubtotal: 50000,
			wantTax:      3750,
			wantShipping: 2500,
			wantTotal:    56250,
		},
		{
			name: "multiple lines sum into subtotal",
			items: []pricing.RequestedItem{
				{Product: product("a", 1000, 5), Quantity: 3},
				{Product: product("b", 700, 5), Quantity: 1},
			},
			wantSubtotal: 3700,
			wantTax:      277,
			wantShipping: 2500,
			wantTotal:    6477,
		},
		{
			name: "untracked product ignores quantity",
			items: []pricing.RequestedItem{
				{Product: entities.Product{ID: "d", Title: "digital", Price: 5000, Active: true}, Quantity: 100},
			},
			wantSubtotal: 500000,
			wantTax:      37500,
			wantShipping: 0,
			wantTotal:    537500,
		},
		{
			name:    "empty cart",
			items:   nil,
			wantErr: entities.ErrEmptyCart,
		},
		{
			name: "inactive product",
			items: []pricing.RequestedItem{
				{Product: entities.Product{ID: "x", Price: 100, Active: false}, Quantity: 1},
			},
			wantErr: entities.ErrProductUnavailable,
		},
		{
			name: "insufficient stock",
			items: []pricing.RequestedItem{
				{Product: product("a", 100, 1), Quantity: 2},
			},
			wantErr: entities.ErrInsufficientStock,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			quote, err := pricing.BuildQuote(tc.items, cfg)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantSubtotal, quote.Subtotal)
			assert.Equal(t, tc.wantTax, quote.Tax)
			assert.Equal(t, tc.wantShipping, quote.Shipping)
			assert.Equal(t, tc.wantTotal, quote.Total)
			assert.Len(t, quote.Items, len(tc.items))

			var lineSum int64
			for i, line := range quote.Items {
				assert.Equal(t, line.UnitPrice*int64(line.Quantity), line.LineTotal)
				assert.Equal(t, tc.items[i].Product.Title, line.Title)
				lineSum += line.LineTotal
			}
			assert.Equal(t, quote.Subtotal, lineSum)
		})
	}
}

func TestBuildQuoteErrorNamesProduct(t *testing.T) {
	_, err := pricing.BuildQuote([]pricing.RequestedItem{
		{Product: product("sku-42", 100, 0), Quantity: 1},
	}, cfg)

	require.ErrorIs(t, err, entities.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "sku-42")
}

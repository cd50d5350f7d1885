// Package pricing turns validated cart lines into a priced quote. It is pure:
// the ledger re-derives pricing from live catalog state at commit time instead
// of trusting client-supplied totals.
package pricing

import (
	"github.com/Semzy1/Log-In-page-main/internal/entities"
)

// Tax is a fixed 7.5% of the subtotal, computed in minor units.
const (
	taxNumerator   = 75
	taxDenominator = 1000
)

type Config struct {
	FlatShippingFee       int64
	FreeShippingThreshold int64
}

type RequestedItem struct {
	Product  entities.Product
	Quantity int
}

type Quote struct {
	Items    []entities.LineItem
	Subtotal int64
	Tax      int64
	Shipping int64
	Total    int64
}

// BuildQuote prices the requested items, snapshotting title and unit price.
// It fails with ErrProductUnavailable for missing/inactive products and
// ErrInsufficientStock when a tracked quantity is below the request, naming
// the offending product in both cases.
func BuildQuote(items []RequestedItem, cfg Config) (Quote, error) {
	if len(items) == 0 {
		return Quote{}, entities.ErrEmptyCart
	}

	lines := make([]entities.LineItem, 0, len(items))
	var subtotal int64

	for _, it := range items {
		p := it.Product
		if p.ID == "" || !p.Active {
			return Quote{}, entities.ProductError(entities.ErrProductUnavailable, p.ID)
		}
		if !p.HasStock(it.Quantity) {
			return Quote{}, entities.ProductError(entities.ErrInsufficientStock, p.ID)
		}

		lineTotal := p.Price * int64(it.Quantity)
		lines = append(lines, entities.LineItem{
			ProductID: p.ID,
			Title:     p.Title,
			UnitPrice: p.Price,
			Quantity:  it.Quantity,
			LineTotal: lineTotal,
		})
		subtotal += lineTotal
	}

	tax := subtotal * taxNumerator / taxDenominator

	shipping := cfg.FlatShippingFee
	if subtotal > cfg.FreeShippingThreshold {
		shipping = 0
	}

	return Quote{
		Items:    lines,
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal + tax + shipping,
	}, nil
}

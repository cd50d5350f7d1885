package entities

// Product is the catalog view the order core needs: price, availability and
// whether inventory tracking applies at all.
type Product struct {
	ID            string
	Title         string
	Price         int64
	Quantity      int
	TrackQuantity bool
	Active        bool
}

// HasStock reports whether qty units can be ordered. Untracked products are
// always in stock.
func (p Product) HasStock(qty int) bool {
	return !p.TrackQuantity || p.Quantity >= qty
}

type CartItem struct {
	ProductID string
	Quantity  int
}

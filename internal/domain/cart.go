package domain

// CartLine represents one distinct product in the active cart.
//
// The line ID depends on where the cart lives: remotely persisted lines carry
// their database row id, guest lines carry a locally generated id. Prices are
// whole Ugandan shillings captured at the moment the product was added; the
// cart never re-fetches catalog state.
type CartLine struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	UnitPrice  int64  `json:"unit_price"`
	ImageURL   string `json:"image_url,omitempty"`
	VendorID   string `json:"vendor_id"`
	VendorName string `json:"vendor_name"`
	Quantity   int    `json:"quantity"`
}

// LineTotal returns unit price times quantity for this line.
func (l CartLine) LineTotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Product carries the catalog fields captured when a product is added to the
// cart.
type Product struct {
	ID         string `json:"id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Price      int64  `json:"price" validate:"gte=0"`
	ImageURL   string `json:"image_url"`
	VendorID   string `json:"vendor_id" validate:"required"`
	VendorName string `json:"vendor_name"`
}

// Snapshot is the ordered collection of cart lines owned by a cart store.
// At most one line exists per product id.
type Snapshot []CartLine

// TotalItems returns the sum of quantities across all lines.
func (s Snapshot) TotalItems() int {
	var count int
	for _, l := range s {
		count += l.Quantity
	}
	return count
}

// Subtotal returns the sum of unit price times quantity across all lines.
func (s Snapshot) Subtotal() int64 {
	var total int64
	for _, l := range s {
		total += l.LineTotal()
	}
	return total
}

// FindLine returns the index of the line for the given product id, or -1.
func (s Snapshot) FindLine(productID string) int {
	for i := range s {
		if s[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a copy the caller may mutate without affecting the original.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

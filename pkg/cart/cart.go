package cart

import (
	"slices"

	"github.com/shopspring/decimal"
)

// StorageKey is the durable store key holding the serialized cart.
const StorageKey = "cart_items"

// Entry is one product line of the cart. Quantity is always positive.
type Entry struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal returns price × quantity.
func (e Entry) Subtotal() decimal.Decimal {
	return e.Product.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Cart is the ordered list of entries, in the order products were first added.
// It holds at most one entry per product id.
type Cart []Entry

// QuantityOf returns the quantity for productID, or 0 if it is not in the cart.
func (c Cart) QuantityOf(productID string) int {
	if i := c.index(productID); i >= 0 {
		return c[i].Quantity
	}
	return 0
}

// Contains reports whether productID has an entry.
func (c Cart) Contains(productID string) bool {
	return c.index(productID) >= 0
}

// TotalItemCount is the sum of all quantities.
func (c Cart) TotalItemCount() int {
	n := 0
	for _, e := range c {
		n += e.Quantity
	}
	return n
}

// TotalAmount is the sum of price × quantity over all entries.
func (c Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, e := range c {
		total = total.Add(e.Subtotal())
	}
	return total
}

// IsEmpty reports whether the cart has no entries.
func (c Cart) IsEmpty() bool {
	return len(c) == 0
}

// Clone returns a deep copy of the cart.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for i, e := range c {
		e.Product.Images = slices.Clone(e.Product.Images)
		out[i] = e
	}
	return out
}

// withQuantity returns a new cart with productID set to quantity.
// A positive quantity replaces an existing entry in place (refreshing the
// product payload) or appends a new one; zero or less removes the entry.
func (c Cart) withQuantity(p Product, quantity int) Cart {
	out := c.Clone()
	i := out.index(p.ID)

	switch {
	case quantity <= 0 && i < 0:
		return out
	case quantity <= 0:
		return slices.Delete(out, i, i+1)
	case i >= 0:
		out[i] = Entry{Product: p, Quantity: quantity}
		return out
	default:
		return append(out, Entry{Product: p, Quantity: quantity})
	}
}

func (c Cart) index(productID string) int {
	return slices.IndexFunc(c, func(e Entry) bool { return e.Product.ID == productID })
}

// normalize drops entries that break the cart invariants: an invalid product
// (empty id or negative price), non-positive quantity, or a repeated product
// id (the first one wins).
func normalize(c Cart) (Cart, int) {
	out := make(Cart, 0, len(c))
	seen := make(map[string]struct{}, len(c))
	dropped := 0
	for _, e := range c {
		if _, dup := seen[e.Product.ID]; dup || e.Product.Validate() != nil || e.Quantity <= 0 {
			dropped++
			continue
		}
		seen[e.Product.ID] = struct{}{}
		out = append(out, e)
	}
	return out, dropped
}

package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product is the catalog's read-only description of an item. ID is its identity.
type Product struct {
	ID     string          `json:"id"`
	Title  string          `json:"title"`
	Price  decimal.Decimal `json:"price"`
	Images []string        `json:"images"`
}

// Validate reports ErrInvalidProduct for an empty id or a negative price.
func (p Product) Validate() error {
	if p.ID == "" || p.Price.IsNegative() {
		return ErrInvalidProduct
	}
	return nil
}

// MarshalJSON writes the price as a JSON number rather than a quoted string.
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return json.Marshal(struct {
		plain
		Price  json.Number `json:"price"`
		Images []string    `json:"images"`
	}{
		plain:  plain(p),
		Price:  json.Number(p.Price.String()),
		Images: images,
	})
}

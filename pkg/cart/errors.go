package cart

import "errors"

var (
	// ErrInvalidProduct is returned for a product without an id or with a negative price.
	ErrInvalidProduct = errors.New("cart.invalid_product")

	// ErrPersist is returned when the cart could not be written to the durable store.
	ErrPersist = errors.New("cart.persist_failed")
)

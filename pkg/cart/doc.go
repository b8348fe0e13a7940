// Package cart is the shopping-cart ledger of a storefront client.
//
// The cart is an ordered list of entries, one per product, kept in the
// durable store under StorageKey so every tab of the same origin shares it.
// Quantities are absolute:
//
//	ledger := cart.NewLedger(store, cart.WithPublisher(bus))
//
//	c, err := ledger.SetQuantity(ctx, product, 2) // add or update
//	c, err = ledger.SetQuantity(ctx, product, 0)  // remove
//	total := c.TotalAmount()
//
// Prices and totals are decimal.Decimal values.
package cart

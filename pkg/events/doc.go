// Package events carries change signals between the parts of a storefront
// client.
//
// LocalBus is the intra-tab bus: the cart ledger and the session manager
// publish to it after persisting, and Publish runs every handler before it
// returns. StorageBus is the inter-tab bus: it consumes the durable store's
// change feed, which only reports writes made by other tabs, and re-emits
// them as events.
//
// Events carry no state. Handlers re-read the store:
//
//	bus.Subscribe(events.TopicStorageChanged, func(ctx context.Context, _ events.Event) {
//		sessions.Recompute(ctx)
//	})
package events

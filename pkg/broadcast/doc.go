// Package broadcast provides type-safe, non-blocking one-to-many message
// fan-out.
//
// The in-memory implementation backs the change feed of storage.MemoryBackend
// (one subscriber per tab, filtered with ExcludeOrigin so a tab never hears its
// own writes) and the slot stream of the notification queue.
//
//	b := broadcast.NewMemoryBroadcaster[string](16)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx, broadcast.ExcludeOrigin("tab-a"))
//	defer sub.Close()
//
//	_ = b.Broadcast(ctx, broadcast.Message[string]{Origin: "tab-b", Data: "cart_items"})
//	msg := <-sub.Receive(ctx)
//
// Subscribers are removed when their context is cancelled, when Close is
// called on them, or when the broadcaster is closed. A slow subscriber loses
// messages that do not fit its buffer instead of blocking the sender.
package broadcast

// Package notifications is the toast slot of a storefront client.
//
// A Queue holds at most one notification. Show replaces the visible one and
// restarts the auto-dismiss timer (DefaultDismissAfter, 3000 ms); a timer
// that belonged to a replaced notification never clears its successor.
//
//	toasts := notifications.New()
//	defer toasts.Close()
//
//	toasts.Success(ctx, "Added to cart")
//	if n, ok := toasts.Current(); ok {
//		render(n)
//	}
//
// Renderers that prefer push over polling use Subscribe, which streams an
// Update for every show, dismiss and expiry.
package notifications

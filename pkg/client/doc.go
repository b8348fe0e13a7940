// Package client assembles the state core of one storefront tab.
//
// Every tab opened on the same storage.Backend shares the cart and the
// session. A write in one tab reaches the others through the backend's
// change feed, and they recompute their session from the store:
//
//	backend := storage.NewMemoryBackend()
//	a, _ := client.Open(ctx, backend)
//	b, _ := client.Open(ctx, backend)
//
//	_ = a.Session().Login(ctx, session.Profile{Email: "a@b.com"})
//	// shortly after, b.Session().IsLoggedIn() is true
package client

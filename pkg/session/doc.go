// Package session derives the authenticated user of a storefront client from
// the durable store shared by all of its tabs.
//
// Two keys hold the session: KeyLoggedIn (a JSON boolean) and KeyCurrentUser
// (the Profile). A Manager starts in StateUnknown and moves to
// StateAuthenticated or StateAnonymous on Login, Logout and Recompute.
//
//	sessions := session.New(store, session.WithPublisher(bus))
//	sessions.Recompute(ctx)
//
//	if err := sessions.Login(ctx, session.Profile{Email: "a@b.com", Role: session.RoleAdmin}); err != nil {
//		return err
//	}
//
// Other tabs never push state into a Manager. When the store changes
// elsewhere, call Recompute and it re-reads both keys. A corrupt profile
// degrades to anonymous. Updating the profile while anonymous does nothing.
//
// Snapshots travel to UI code through the context:
//
//	ctx = session.WithSnapshot(ctx, sessions.Snapshot())
//	if user, ok := session.UserFromContext(ctx); ok { ... }
package session

// Package storage is the durable store adapter: a thin typed layer over an
// origin-scoped key-value Backend shared by several execution contexts (tabs).
//
// A Backend stores raw bytes and tags every mutation with the origin that made
// it. Watch delivers changes made by other origins only, which is how a tab
// learns that another tab touched shared state. MemoryBackend is the
// in-process implementation; pkg/redis provides a networked one.
//
// An Adapter binds one tab to a Backend:
//
//	backend := storage.NewMemoryBackend()
//	tab := storage.NewAdapter(backend)
//
//	_ = tab.Write(ctx, "isLoggedIn", true)
//	loggedIn, ok := storage.Read[bool](ctx, tab, "isLoggedIn")
//
// Reads never fail: absent keys, JSON null, malformed text and backend read
// errors all come back as (zero, false). Writes return backend I/O errors,
// which only networked backends produce.
package storage

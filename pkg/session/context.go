package session

import "context"

type snapshotContextKey struct{}

// WithSnapshot attaches a session snapshot to ctx.
func WithSnapshot(ctx context.Context, s Snapshot) context.Context {
	return context.WithValue(ctx, snapshotContextKey{}, s)
}

// FromContext returns the snapshot attached by WithSnapshot.
func FromContext(ctx context.Context) (Snapshot, bool) {
	s, ok := ctx.Value(snapshotContextKey{}).(Snapshot)
	return s, ok
}

// MustFromContext is FromContext that panics when no snapshot is attached.
func MustFromContext(ctx context.Context) Snapshot {
	s, ok := FromContext(ctx)
	if !ok {
		panic(ErrNotInContext)
	}
	return s
}

// UserFromContext returns the authenticated user of the attached snapshot.
func UserFromContext(ctx context.Context) (Profile, bool) {
	s, ok := FromContext(ctx)
	if !ok || !s.IsAuthenticated() {
		return Profile{}, false
	}
	return s.User.Clone(), true
}

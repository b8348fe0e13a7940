package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/cartsync/pkg/session"
)

func TestContextHelpers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, ok := session.FromContext(ctx)
	assert.False(t, ok)
	assert.Panics(t, func() { session.MustFromContext(ctx) })

	anon := session.WithSnapshot(ctx, session.Snapshot{State: session.StateAnonymous})
	assert.Equal(t, session.StateAnonymous, session.MustFromContext(anon).State)
	_, ok = session.UserFromContext(anon)
	assert.False(t, ok)

	user := &session.Profile{Email: "a@b.com"}
	authed := session.WithSnapshot(ctx, session.Snapshot{State: session.StateAuthenticated, User: user})
	got, ok := session.UserFromContext(authed)
	assert.True(t, ok)
	assert.Equal(t, "a@b.com", got.Email)
}

package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cartsync/pkg/events"
	"github.com/dmitrymomot/cartsync/pkg/session"
	"github.com/dmitrymomot/cartsync/pkg/storage"
)

const avatar = "data:image/png;base64,iVBORw0KGgo="

type fixture struct {
	backend *storage.MemoryBackend
	store   *storage.Adapter
	bus     *events.LocalBus
	manager *session.Manager
	changes *int
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	backend := storage.NewMemoryBackend()
	t.Cleanup(func() { _ = backend.Close() })

	store := storage.NewAdapter(backend)
	bus := events.NewLocalBus()
	changes := new(int)
	bus.Subscribe(events.TopicSessionChanged, func(context.Context, events.Event) { *changes++ })

	return fixture{
		backend: backend,
		store:   store,
		bus:     bus,
		manager: session.New(store, session.WithPublisher(bus)),
		changes: changes,
	}
}

func assertInvariant(t *testing.T, s session.Snapshot) {
	t.Helper()
	assert.Equal(t, s.IsAuthenticated(), s.User != nil, "authenticated iff user present: %+v", s)
}

func TestManager_InitialState(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	assert.True(t, f.manager.IsLoading())
	assert.False(t, f.manager.IsLoggedIn())
	assertInvariant(t, f.manager.Snapshot())

	s := f.manager.Recompute(context.Background())
	assert.Equal(t, session.StateAnonymous, s.State)
	assert.False(t, f.manager.IsLoading())
	assertInvariant(t, s)
	assert.Equal(t, 1, *f.changes)
}

func TestManager_LoginAndExternalWipe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.manager.Recompute(ctx)

	require.NoError(t, f.manager.Login(ctx, session.Profile{Email: "a@b.com", Role: "ADMIN"}))
	assert.True(t, f.manager.IsLoggedIn())
	user, ok := f.manager.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, session.RoleAdmin, user.Role)
	assertInvariant(t, f.manager.Snapshot())

	raw := f.backend.Snapshot()
	assert.JSONEq(t, `true`, string(raw[session.KeyLoggedIn]))
	assert.JSONEq(t, `{"name":"","email":"a@b.com","role":"ADMIN"}`, string(raw[session.KeyCurrentUser]))

	// another tab wipes the credentials
	require.NoError(t, f.backend.Clear(ctx, "other-tab"))
	s := f.manager.Recompute(ctx)
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User)
	assertInvariant(t, s)
}

func TestManager_Logout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.manager.Login(ctx, session.Profile{Email: "a@b.com"}))
	require.NoError(t, f.manager.Logout(ctx))

	assert.False(t, f.manager.IsLoggedIn())
	_, ok := f.manager.CurrentUser()
	assert.False(t, ok)
	assert.Empty(t, f.backend.Snapshot())
	assert.Equal(t, 2, *f.changes)
	assertInvariant(t, f.manager.Snapshot())
}

func TestManager_LoginValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	assert.ErrorIs(t, f.manager.Login(ctx, session.Profile{Email: "a@b.com", Role: "owner"}), session.ErrInvalidRole)
	assert.ErrorIs(t, f.manager.Login(ctx, session.Profile{Email: "a@b.com", ProfileImage: "x.png"}), session.ErrInvalidProfileImage)
	assert.Empty(t, f.backend.Snapshot())
	assert.True(t, f.manager.IsLoading())
}

func TestManager_Recompute(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name     string
		stored   map[string]string
		wantAuth bool
	}{
		{"empty store", nil, false},
		{"flag without profile", map[string]string{session.KeyLoggedIn: `true`}, false},
		{"profile without flag", map[string]string{session.KeyCurrentUser: `{"email":"a@b.com"}`}, false},
		{"flag false", map[string]string{session.KeyLoggedIn: `false`, session.KeyCurrentUser: `{"email":"a@b.com"}`}, false},
		{"corrupt profile", map[string]string{session.KeyLoggedIn: `true`, session.KeyCurrentUser: `{"email":`}, false},
		{"corrupt flag", map[string]string{session.KeyLoggedIn: `yes`, session.KeyCurrentUser: `{"email":"a@b.com"}`}, false},
		{"profile is not an object", map[string]string{session.KeyLoggedIn: `true`, session.KeyCurrentUser: `"a@b.com"`}, false},
		{"valid", map[string]string{session.KeyLoggedIn: `true`, session.KeyCurrentUser: `{"email":"a@b.com","role":"user"}`}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			for k, v := range tt.stored {
				require.NoError(t, f.backend.Set(ctx, "other-tab", k, []byte(v)))
			}

			s := f.manager.Recompute(ctx)
			assert.Equal(t, tt.wantAuth, s.IsAuthenticated())
			assertInvariant(t, s)
		})
	}
}

func TestManager_RecomputePublishesOnlyOnChange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.manager.Recompute(ctx)
	f.manager.Recompute(ctx)
	assert.Equal(t, 1, *f.changes)

	other := session.New(storage.NewAdapter(f.backend))
	require.NoError(t, other.Login(ctx, session.Profile{Email: "a@b.com"}))

	f.manager.Recompute(ctx)
	f.manager.Recompute(ctx)
	assert.Equal(t, 2, *f.changes)
	assert.True(t, f.manager.IsLoggedIn())

	name := "Ann"
	require.NoError(t, other.UpdateProfile(ctx, session.ProfileUpdate{Name: &name}))
	f.manager.Recompute(ctx)
	assert.Equal(t, 3, *f.changes)
	user, _ := f.manager.CurrentUser()
	assert.Equal(t, "Ann", user.Name)
}

func TestManager_UpdateProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("anonymous is a no-op", func(t *testing.T) {
		f := newFixture(t)
		f.manager.Recompute(ctx)
		img := avatar

		require.NoError(t, f.manager.UpdateProfilePicture(ctx, &img))
		assert.Empty(t, f.backend.Snapshot())
		assert.False(t, f.manager.IsLoggedIn())
		assert.Equal(t, 1, *f.changes)
	})

	t.Run("unknown state is a no-op", func(t *testing.T) {
		f := newFixture(t)
		name := "x"
		require.NoError(t, f.manager.UpdateProfile(ctx, session.ProfileUpdate{Name: &name}))
		assert.True(t, f.manager.IsLoading())
	})

	t.Run("merges into the stored profile", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.manager.Login(ctx, session.Profile{Name: "Ann", Email: "a@b.com"}))

		// another tab added a field the manager does not know about
		require.NoError(t, f.backend.Set(ctx, "other-tab", session.KeyCurrentUser,
			[]byte(`{"name":"Ann","email":"a@b.com","role":"USER","phone":"+47"}`)))

		img := avatar
		require.NoError(t, f.manager.UpdateProfilePicture(ctx, &img))

		var stored map[string]any
		require.NoError(t, json.Unmarshal(f.backend.Snapshot()[session.KeyCurrentUser], &stored))
		assert.Equal(t, avatar, stored["profileImage"])
		assert.Equal(t, "+47", stored["phone"])
		assert.Equal(t, "Ann", stored["name"])

		user, ok := f.manager.CurrentUser()
		require.True(t, ok)
		assert.Equal(t, avatar, user.ProfileImage)
		assert.Equal(t, 2, *f.changes)
	})

	t.Run("nil picture removes the image", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.manager.Login(ctx, session.Profile{Email: "a@b.com", ProfileImage: avatar}))

		require.NoError(t, f.manager.UpdateProfilePicture(ctx, nil))
		user, _ := f.manager.CurrentUser()
		assert.Empty(t, user.ProfileImage)
		assert.NotContains(t, string(f.backend.Snapshot()[session.KeyCurrentUser]), "profileImage")
	})

	t.Run("rejects non data URI", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.manager.Login(ctx, session.Profile{Email: "a@b.com"}))

		img := "https://example.com/me.png"
		assert.ErrorIs(t, f.manager.UpdateProfilePicture(ctx, &img), session.ErrInvalidProfileImage)
		user, _ := f.manager.CurrentUser()
		assert.Empty(t, user.ProfileImage)
	})

	t.Run("extra fields", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.manager.Login(ctx, session.Profile{Email: "a@b.com"}))
		require.NoError(t, f.manager.UpdateProfile(ctx, session.ProfileUpdate{
			Extra: map[string]json.RawMessage{"locale": json.RawMessage(`"nb"`)},
		}))

		user, _ := f.manager.CurrentUser()
		assert.JSONEq(t, `"nb"`, string(user.Extra["locale"]))
	})
}

func TestManager_SnapshotIsACopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.manager.Login(ctx, session.Profile{Email: "a@b.com"}))

	s := f.manager.Snapshot()
	s.User.Email = "mallory@example.com"

	user, _ := f.manager.CurrentUser()
	assert.Equal(t, "a@b.com", user.Email)
}

func TestManager_PublishesAfterPersisting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	var observed []bool
	f.bus.Subscribe(events.TopicSessionChanged, func(ctx context.Context, _ events.Event) {
		fresh := session.New(storage.NewAdapter(f.backend))
		observed = append(observed, fresh.Recompute(ctx).IsAuthenticated())
	})

	require.NoError(t, f.manager.Login(ctx, session.Profile{Email: "a@b.com"}))
	require.NoError(t, f.manager.Logout(ctx))

	assert.Equal(t, []bool{true, false}, observed)
}

type failingBackend struct {
	storage.Backend
}

func (failingBackend) Get(context.Context, string) ([]byte, error) { return nil, nil }

func (failingBackend) Set(context.Context, string, string, []byte) error {
	return errors.New("read-only")
}

func (failingBackend) Delete(context.Context, string, string) error {
	return errors.New("read-only")
}

func TestManager_PersistError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := session.New(storage.NewAdapter(failingBackend{}))
	m.Recompute(ctx)

	assert.ErrorIs(t, m.Login(ctx, session.Profile{Email: "a@b.com"}), session.ErrPersist)
	assert.False(t, m.IsLoggedIn())
	assert.ErrorIs(t, m.Logout(ctx), session.ErrPersist)
	assert.Equal(t, session.StateAnonymous, m.Snapshot().State)
}

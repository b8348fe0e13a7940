package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/cartsync/pkg/events"
	"github.com/dmitrymomot/cartsync/pkg/logger"
	"github.com/dmitrymomot/cartsync/pkg/statemachine"
	"github.com/dmitrymomot/cartsync/pkg/storage"
)

// Store keys.
const (
	KeyLoggedIn    = "isLoggedIn"
	KeyCurrentUser = "currentUser"
)

// Manager derives the session of one execution context from the durable
// store. The store is authoritative: Recompute discards the in-memory view
// and re-reads it, which is the only reaction to changes made elsewhere.
type Manager struct {
	store  *storage.Adapter
	bus    events.Publisher
	logger *slog.Logger

	mu        sync.RWMutex
	lifecycle *statemachine.Machine
	user      *Profile
}

// New creates a manager in StateUnknown. Call Recompute to load the stored
// session.
func New(store *storage.Adapter, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		bus:    events.NopPublisher,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.lifecycle = newLifecycle(m.logTransition)
	return m
}

// Snapshot returns the current derived session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// IsLoggedIn reports whether a user is authenticated.
func (m *Manager) IsLoggedIn() bool {
	return m.Snapshot().IsAuthenticated()
}

// CurrentUser returns the authenticated user.
func (m *Manager) CurrentUser() (Profile, bool) {
	s := m.Snapshot()
	if !s.IsAuthenticated() {
		return Profile{}, false
	}
	return *s.User, true
}

// IsLoading reports whether the store has not been read yet.
func (m *Manager) IsLoading() bool {
	return m.Snapshot().IsLoading()
}

// Recompute re-reads the store. The session is authenticated only when the
// logged-in flag is true and the stored profile decodes; anything else,
// including corrupt data, yields StateAnonymous. Subscribers get
// session-changed when the result differs from the previous snapshot.
func (m *Manager) Recompute(ctx context.Context) Snapshot {
	m.mu.Lock()
	before, after := m.recomputeLocked(ctx)
	m.mu.Unlock()

	if !before.equal(after) {
		m.publish(ctx)
	}
	return after
}

// recomputeLocked reads the store and applies the result. The reads happen
// under m.mu so a local Login, Logout or UpdateProfile cannot land between
// them and the state change.
func (m *Manager) recomputeLocked(ctx context.Context) (before, after Snapshot) {
	before = m.snapshotLocked()

	flag, _ := storage.Read[bool](ctx, m.store, KeyLoggedIn)
	profile, hasProfile := storage.Read[Profile](ctx, m.store, KeyCurrentUser)
	authenticated := flag && hasProfile

	if flag && !hasProfile {
		m.logger.WarnContext(ctx, "logged-in flag set without a readable profile",
			logger.Component("session"),
		)
	}

	if err := m.lifecycle.Fire(ctx, eventResolve, authenticated); err != nil {
		m.logger.ErrorContext(ctx, "session recompute transition failed",
			logger.Component("session"),
			logger.Error(err),
		)
		return before, before
	}
	m.user = nil
	if authenticated {
		m.user = &profile
	}
	return before, m.snapshotLocked()
}

// Login persists profile and marks the session authenticated. The profile is
// written before the logged-in flag so a reader never sees the flag without a
// profile. On a failed write the session is recomputed from whatever reached
// the store.
func (m *Manager) Login(ctx context.Context, profile Profile) error {
	role, err := ParseRole(string(profile.Role))
	if err != nil {
		return err
	}
	if err := ValidateProfileImage(profile.ProfileImage); err != nil {
		return err
	}
	profile = profile.Clone()
	profile.Role = role

	m.mu.Lock()
	err = m.persistLogin(ctx, profile)
	if err == nil {
		err = m.lifecycle.Fire(ctx, eventLogin, nil)
	}
	if err == nil {
		m.user = &profile
	}
	if err != nil {
		m.unlockAfterFailure(ctx)
		return err
	}
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "user logged in",
		logger.Component("session"),
		logger.Email(profile.Email),
	)
	m.publish(ctx)
	return nil
}

// Logout removes the stored session and marks it anonymous. On a failed
// remove the session is recomputed from what is left in the store.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	err := m.persistLogout(ctx)
	if err == nil {
		err = m.lifecycle.Fire(ctx, eventLogout, nil)
	}
	if err == nil {
		m.user = nil
	}
	if err != nil {
		m.unlockAfterFailure(ctx)
		return err
	}
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "user logged out", logger.Component("session"))
	m.publish(ctx)
	return nil
}

// UpdateProfile merges u into the stored profile. It is a no-op unless the
// session is authenticated both in memory and in the store; when the store
// says otherwise the session is recomputed instead.
func (m *Manager) UpdateProfile(ctx context.Context, u ProfileUpdate) error {
	if u.ProfileImage != nil {
		if err := ValidateProfileImage(*u.ProfileImage); err != nil {
			return err
		}
	}

	m.mu.Lock()
	if !m.lifecycle.CanFire(ctx, eventUpdate, nil) || m.user == nil {
		state := m.lifecycle.Current().Name()
		m.mu.Unlock()
		m.logger.DebugContext(ctx, "profile update ignored, no authenticated user",
			logger.Component("session"),
			logger.State(state),
		)
		return nil
	}

	// the stored profile is the merge base, it may carry fields written by another context
	flag, _ := storage.Read[bool](ctx, m.store, KeyLoggedIn)
	stored, hasProfile := storage.Read[Profile](ctx, m.store, KeyCurrentUser)
	if !flag || !hasProfile {
		before, after := m.recomputeLocked(ctx)
		m.mu.Unlock()
		m.logger.DebugContext(ctx, "profile update ignored, session ended in another context",
			logger.Component("session"),
		)
		if !before.equal(after) {
			m.publish(ctx)
		}
		return nil
	}
	updated := u.apply(stored)

	err := m.store.Write(ctx, KeyCurrentUser, updated)
	if err != nil {
		err = errors.Join(ErrPersist, err)
	}
	if err == nil {
		err = m.lifecycle.Fire(ctx, eventUpdate, nil)
	}
	if err == nil {
		m.user = &updated
	}
	if err != nil {
		m.unlockAfterFailure(ctx)
		return err
	}
	m.mu.Unlock()

	m.publish(ctx)
	return nil
}

// unlockAfterFailure recomputes after a partially applied mutation, releases
// m.mu and publishes when the snapshot moved.
func (m *Manager) unlockAfterFailure(ctx context.Context) {
	before, after := m.recomputeLocked(ctx)
	m.mu.Unlock()
	if !before.equal(after) {
		m.publish(ctx)
	}
}

// UpdateProfilePicture sets the profile image. A nil image removes it.
func (m *Manager) UpdateProfilePicture(ctx context.Context, image *string) error {
	img := ""
	if image != nil {
		img = *image
	}
	return m.UpdateProfile(ctx, ProfileUpdate{ProfileImage: &img})
}

func (m *Manager) persistLogin(ctx context.Context, profile Profile) error {
	if err := m.store.Write(ctx, KeyCurrentUser, profile); err != nil {
		return errors.Join(ErrPersist, err)
	}
	if err := m.store.Write(ctx, KeyLoggedIn, true); err != nil {
		return errors.Join(ErrPersist, err)
	}
	return nil
}

func (m *Manager) persistLogout(ctx context.Context) error {
	if err := m.store.Remove(ctx, KeyLoggedIn); err != nil {
		return errors.Join(ErrPersist, err)
	}
	if err := m.store.Remove(ctx, KeyCurrentUser); err != nil {
		return errors.Join(ErrPersist, err)
	}
	return nil
}

func (m *Manager) snapshotLocked() Snapshot {
	s := Snapshot{State: State(m.lifecycle.Current().Name())}
	if s.State == StateAuthenticated && m.user != nil {
		u := m.user.Clone()
		s.User = &u
	}
	return s
}

func (m *Manager) publish(ctx context.Context) {
	m.bus.Publish(ctx, events.Event{
		Topic:  events.TopicSessionChanged,
		Origin: m.store.Origin(),
	})
}

func (m *Manager) logTransition(ctx context.Context, from, to statemachine.State, e statemachine.Event) {
	if from.Name() == to.Name() {
		return
	}
	m.logger.DebugContext(ctx, "session state changed",
		logger.Component("session"),
		slog.String("from", from.Name()),
		logger.State(to.Name()),
		slog.String("event", e.Name()),
	)
}

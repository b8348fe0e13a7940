package session

import (
	"context"

	"github.com/dmitrymomot/cartsync/pkg/statemachine"
)

// State is the session lifecycle state.
type State string

const (
	// StateUnknown is the state before the store was first read.
	StateUnknown       State = "unknown"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// Name implements statemachine.State.
func (s State) Name() string { return string(s) }

const (
	eventLogin   = statemachine.StringEvent("login")
	eventLogout  = statemachine.StringEvent("logout")
	eventResolve = statemachine.StringEvent("resolve")
	eventUpdate  = statemachine.StringEvent("update_profile")
)

// Snapshot is the derived session view. User is nil unless State is
// StateAuthenticated.
type Snapshot struct {
	State State
	User  *Profile
}

// IsAuthenticated reports whether a user is logged in.
func (s Snapshot) IsAuthenticated() bool {
	return s.State == StateAuthenticated && s.User != nil
}

// IsLoading reports whether the store has not been read yet.
func (s Snapshot) IsLoading() bool {
	return s.State == StateUnknown
}

func (s Snapshot) equal(o Snapshot) bool {
	if s.State != o.State || (s.User == nil) != (o.User == nil) {
		return false
	}
	if s.User == nil {
		return true
	}
	a, errA := s.User.MarshalJSON()
	b, errB := o.User.MarshalJSON()
	return errA == nil && errB == nil && string(a) == string(b)
}

func authenticatedGuard(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	ok, _ := data.(bool)
	return ok
}

func newLifecycle(listener statemachine.Listener) *statemachine.Machine {
	return statemachine.MustNew(StateUnknown,
		statemachine.WithTransition(statemachine.Any, StateAuthenticated, eventLogin),
		statemachine.WithTransition(statemachine.Any, StateAnonymous, eventLogout),
		statemachine.WithTransition(statemachine.Any, StateAuthenticated, eventResolve,
			statemachine.WithGuard(authenticatedGuard)),
		statemachine.WithTransition(statemachine.Any, StateAnonymous, eventResolve),
		statemachine.WithTransition(StateAuthenticated, StateAuthenticated, eventUpdate),
		statemachine.WithListener(listener),
	)
}

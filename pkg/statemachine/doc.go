// Package statemachine is a small finite state machine used to track
// lifecycles such as a client session moving from "unknown" to
// "authenticated" or "anonymous".
//
// States and events are anything with a Name. StringState and StringEvent
// cover the common case:
//
//	const (
//	    Unknown       = statemachine.StringState("unknown")
//	    Authenticated = statemachine.StringState("authenticated")
//	    Login         = statemachine.StringEvent("login")
//	)
//
//	m := statemachine.MustNew(Unknown,
//	    statemachine.WithTransition(statemachine.Any, Authenticated, Login),
//	)
//	_ = m.Fire(ctx, Login, nil)
//
// Several transitions may share a source state and event; the first one whose
// guards all pass wins. Transitions from a concrete state are tried before
// transitions from Any. Actions run before the state changes and can abort the
// transition; listeners run after it and cannot.
//
// Fire reports *ErrNoTransitionAvailable when nothing is declared for the
// current state and event, and *ErrTransitionRejected when guards vetoed every
// candidate. IsNoTransitionAvailableError and IsTransitionRejectedError test
// for them.
package statemachine

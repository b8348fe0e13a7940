package statemachine

import (
	"errors"
	"fmt"
)

// Option configures a Machine during construction.
type Option func(*Machine) error

// TransitionOption configures a single transition.
type TransitionOption func(*transitionConfig)

// TransitionDef declares a transition for WithTransitions.
type TransitionDef struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard
	Actions []Action
}

type transitionConfig struct {
	guards  []Guard
	actions []Action
}

// New creates a state machine in initialState.
func New(initialState State, opts ...Option) (*Machine, error) {
	if initialState == nil {
		return nil, ErrNilInitialState
	}

	m := newMachine(initialState)
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is New that panics on a configuration error.
func MustNew(initialState State, opts ...Option) *Machine {
	m, err := New(initialState, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

// WithTransition adds one transition.
func WithTransition(from, to State, event Event, opts ...TransitionOption) Option {
	return func(m *Machine) error {
		cfg := &transitionConfig{}
		for _, opt := range opts {
			opt(cfg)
		}
		return m.AddTransition(from, to, event, cfg.guards, cfg.actions)
	}
}

// WithTransitions adds several transitions at once.
func WithTransitions(transitions []TransitionDef) Option {
	return func(m *Machine) error {
		for i, t := range transitions {
			if err := m.AddTransition(t.From, t.To, t.Event, t.Guards, t.Actions); err != nil {
				return errors.Join(fmt.Errorf("transition[%d] %s->%s on %s",
					i, nameOf(t.From), nameOf(t.To), nameOf(t.Event)), err)
			}
		}
		return nil
	}
}

// WithListener registers l to run after every successful transition.
func WithListener(l Listener) Option {
	return func(m *Machine) error {
		if l != nil {
			m.listeners = append(m.listeners, l)
		}
		return nil
	}
}

// WithGuard adds a guard to a transition.
func WithGuard(guard Guard) TransitionOption {
	return func(cfg *transitionConfig) {
		if guard != nil {
			cfg.guards = append(cfg.guards, guard)
		}
	}
}

// WithAction adds an action to a transition.
func WithAction(action Action) TransitionOption {
	return func(cfg *transitionConfig) {
		if action != nil {
			cfg.actions = append(cfg.actions, action)
		}
	}
}

func nameOf(v interface{ Name() string }) string {
	if v == nil {
		return "<nil>"
	}
	return v.Name()
}

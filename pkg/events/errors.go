package events

import "errors"

var (
	ErrHandlerPanic   = errors.New("events.handler_panic")
	ErrAlreadyStarted = errors.New("events.already_started")
	ErrWatchFailed    = errors.New("events.watch_failed")
)

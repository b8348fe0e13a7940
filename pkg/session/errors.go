package session

import "errors"

var (
	// ErrInvalidProfileImage indicates a profile image that is not a data URI
	ErrInvalidProfileImage = errors.New("session.invalid_profile_image")

	// ErrInvalidRole indicates a role other than USER or ADMIN
	ErrInvalidRole = errors.New("session.invalid_role")

	// ErrPersist indicates the durable store rejected a session write
	ErrPersist = errors.New("session.persist_failed")

	// ErrNotInContext indicates no session snapshot was attached to the context
	ErrNotInContext = errors.New("session.not_in_context")
)

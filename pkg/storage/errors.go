package storage

import "errors"

var (
	// ErrEmptyKey is returned when a store operation is given an empty key.
	ErrEmptyKey = errors.New("storage.empty_key")

	// ErrEncode is returned when a value cannot be serialized for storage.
	ErrEncode = errors.New("storage.encode_failed")

	// ErrClosed is returned by a backend after Close.
	ErrClosed = errors.New("storage.closed")
)

package client

import "errors"

var (
	ErrNoBackend = errors.New("client.no_backend")
	ErrOpen      = errors.New("client.open_failed")
)

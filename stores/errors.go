package stores

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrVersionConflict  = errors.New("session was modified concurrently")
	errNoConnection     = errors.New("database connection is nil")
	errUnsupportedStore = errors.New("unsupported store type")
)

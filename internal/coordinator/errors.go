package coordinator

import "errors"

// ErrEmptySessionURL is returned when the gateway accepted the request but
// handed back no redirect URL.
var ErrEmptySessionURL = errors.New("gateway returned a session without url")

// ErrSessionNotOpen is returned when the gateway handed back a session that
// can no longer be paid.
var ErrSessionNotOpen = errors.New("gateway returned a session that is not open")

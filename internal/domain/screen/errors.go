package screen

import "errors"

// PendingToken is the sentinel a screen presents on first contact.
const PendingToken = "pending"

var (
	// ErrScreenNotFound indicates the screen doesn't exist.
	ErrScreenNotFound = errors.New("screen not found")
	// ErrInvalidInput indicates missing or malformed input.
	ErrInvalidInput = errors.New("invalid screen input")
	// ErrInvalidProjectType indicates an unrecognized projection kind.
	ErrInvalidProjectType = errors.New("invalid type, must be inline_html or iframe")
	// ErrScreenNotActive indicates the operation needs an active screen.
	ErrScreenNotActive = errors.New("screen not active")
	// ErrScreenOffline indicates an active screen has no live channel.
	ErrScreenOffline = errors.New("screen is offline")
	// ErrTokenRequired indicates a connection attempt without a token.
	ErrTokenRequired = errors.New("token required")
	// ErrInvalidToken indicates a token that matches no screen.
	ErrInvalidToken = errors.New("invalid token")
	// ErrIDExhausted indicates no free screen id could be drawn.
	ErrIDExhausted = errors.New("could not allocate a screen id")
)

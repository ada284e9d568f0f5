package activity

import "errors"

var (
	// ErrInvalidInput indicates a malformed entry or filter.
	ErrInvalidInput = errors.New("invalid activity input")
)

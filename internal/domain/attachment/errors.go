package attachment

import "errors"

var (
	// ErrAttachmentNotFound indicates the attachment or its bytes don't exist.
	ErrAttachmentNotFound = errors.New("attachment not found")
	// ErrUnauthorized indicates a missing or mismatched access token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidInput indicates a missing or empty upload.
	ErrInvalidInput = errors.New("no file provided")
	// ErrTooLarge indicates an upload over the configured limit.
	ErrTooLarge = errors.New("attachment too large")
)

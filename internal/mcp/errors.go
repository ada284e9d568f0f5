package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/screen-relay/internal/domain/activity"
	"github.com/ganot/screen-relay/internal/domain/screen"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, screen.ErrScreenNotFound):
		return &APIError{Code: "SCREEN_NOT_FOUND", Message: "screen not found", RecoveryHint: "Call list_screens to see known ids"}
	case errors.Is(err, screen.ErrInvalidProjectType):
		return &APIError{Code: "INVALID_PROJECT_TYPE", Message: err.Error(), RecoveryHint: "Use inline_html or iframe"}
	case errors.Is(err, screen.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Provide non-empty name_en and name_zh"}
	case errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Use a known activity type and a non-negative limit"}
	case errors.Is(err, screen.ErrScreenNotActive):
		return &APIError{Code: "SCREEN_NOT_ACTIVE", Message: "screen not active", RecoveryHint: "Confirm the screen first; inactive screens cannot be reused"}
	case errors.Is(err, screen.ErrScreenOffline):
		return &APIError{Code: "SCREEN_OFFLINE", Message: "screen is offline", RecoveryHint: "Retry once the screen reconnects"}
	default:
		return &APIError{Code: "INTERNAL_ERROR", Message: err.Error()}
	}
}

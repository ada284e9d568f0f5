package activity

import (
	"encoding/json"
	"time"
)

// Type identifies a screen lifecycle event
type Type string

const (
	TypeScreenConnected   Type = "screen_connected"
	TypeScreenConfirmed   Type = "screen_confirmed"
	TypeScreenUpdated     Type = "screen_updated"
	TypeScreenDeactivated Type = "screen_deactivated"
	TypeScreenDeleted     Type = "screen_deleted"
	TypeTokenRegenerated  Type = "token_regenerated"
	TypeContentProjected  Type = "content_projected"
)

// Valid reports whether t is a known event type.
func (t Type) Valid() bool {
	switch t {
	case TypeScreenConnected, TypeScreenConfirmed, TypeScreenUpdated, TypeScreenDeactivated,
		TypeScreenDeleted, TypeTokenRegenerated, TypeContentProjected:
		return true
	default:
		return false
	}
}

// Entry is one event in the activity log
type Entry struct {
	ID        int64     `json:"id"`
	ScreenID  string    `json:"screen_id"`
	Type      Type      `json:"type"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// ListOptions filters activity listings. Zero values match everything.
type ListOptions struct {
	ScreenID string
	Type     *Type
	Limit    int
	Offset   int
}

// MarshalJSON encodes timestamps as Unix milliseconds.
func (e Entry) MarshalJSON() ([]byte, error) {
	type alias Entry
	return json.Marshal(struct {
		alias
		CreatedAt int64 `json:"created_at"`
	}{alias(e), e.CreatedAt.UnixMilli()})
}

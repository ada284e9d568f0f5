package screen

import (
	"encoding/json"
	"time"
)

// Status represents the lifecycle status of a screen
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusInactive:
		return true
	default:
		return false
	}
}

// Screen is a remote display target
type Screen struct {
	ID        string    `json:"id"`
	NameEn    string    `json:"name_en"`
	NameZh    string    `json:"name_zh"`
	Token     *string   `json:"token"`
	Status    Status    `json:"status"`
	Online    bool      `json:"online"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TokenValue returns the session token or "" when none has been issued.
func (s *Screen) TokenValue() string {
	if s == nil || s.Token == nil {
		return ""
	}
	return *s.Token
}

// Update is a partial edit of a screen's display names. Nil fields are left unchanged.
type Update struct {
	NameEn *string
	NameZh *string
}

// Projection kinds accepted by Project.
const (
	ProjectInlineHTML = "inline_html"
	ProjectIframe     = "iframe"
)

// Admission describes an accepted connection.
type Admission struct {
	Screen  Screen
	Pending bool
}

// MarshalJSON encodes timestamps as Unix milliseconds.
func (s Screen) MarshalJSON() ([]byte, error) {
	type alias Screen
	return json.Marshal(struct {
		alias
		CreatedAt int64 `json:"created_at"`
		UpdatedAt int64 `json:"updated_at"`
	}{alias(s), s.CreatedAt.UnixMilli(), s.UpdatedAt.UnixMilli()})
}

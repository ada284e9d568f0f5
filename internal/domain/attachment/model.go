package attachment

import (
	"encoding/json"
	"time"
)

// Attachment is an uploaded file readable only with its own access token
type Attachment struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url,omitempty"`
}

// MarshalJSON encodes timestamps as Unix milliseconds.
func (a Attachment) MarshalJSON() ([]byte, error) {
	type alias Attachment
	return json.Marshal(struct {
		alias
		CreatedAt int64 `json:"created_at"`
	}{alias(a), a.CreatedAt.UnixMilli()})
}

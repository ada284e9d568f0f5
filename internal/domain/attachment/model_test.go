package attachment_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ganot/screen-relay/internal/domain/attachment"
)

func TestAttachment_MarshalJSONUsesMillis(t *testing.T) {
	att := &attachment.Attachment{
		ID:        "a1",
		Filename:  "slide.png",
		MimeType:  "image/png",
		Size:      3,
		Token:     "tok",
		CreatedAt: time.UnixMilli(1700000000123),
		URL:       "/attachments/a1?t=tok",
	}

	data, err := json.Marshal(att)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"id": "a1",
		"filename": "slide.png",
		"mime_type": "image/png",
		"size": 3,
		"token": "tok",
		"created_at": 1700000000123,
		"url": "/attachments/a1?t=tok"
	}`, string(data))
}

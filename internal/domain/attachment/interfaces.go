package attachment

import (
	"context"
	"io"
)

// Repository provides persistence for attachment metadata.
type Repository interface {
	Create(ctx context.Context, att *Attachment) error
	Get(ctx context.Context, id string) (*Attachment, error)
	GetByToken(ctx context.Context, token string) (*Attachment, error)
	Delete(ctx context.Context, id string) error
}

// BlobStore holds attachment bytes keyed by attachment id.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// TokenIssuer mints access tokens.
type TokenIssuer interface {
	Issue() string
}

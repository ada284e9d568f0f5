package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/screen-relay/internal/blobstore"
	"github.com/ganot/screen-relay/internal/repository"
	"github.com/ganot/screen-relay/internal/token"
	"github.com/google/uuid"
)

const defaultMimeType = "application/octet-stream"

// Service handles attachment uploads and token-gated reads.
type Service struct {
	repo    Repository
	blobs   BlobStore
	tokens  TokenIssuer
	logger  *slog.Logger
	baseURL string
	maxSize int64
	now     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithBaseURL prefixes attachment URLs, e.g. "https://screens.example.com".
func WithBaseURL(base string) Option {
	return func(s *Service) { s.baseURL = strings.TrimRight(base, "/") }
}

// WithMaxSize caps upload size in bytes. Zero means unlimited.
func WithMaxSize(n int64) Option {
	return func(s *Service) { s.maxSize = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new attachment service.
func NewService(repo Repository, blobs BlobStore, tokens TokenIssuer, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		repo:   repo,
		blobs:  blobs,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadRequest describes an incoming file.
type UploadRequest struct {
	Filename string
	MimeType string
	Size     int64
	Body     io.Reader
}

// Upload stores the bytes, records the metadata and returns the attachment with its URL.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*Attachment, error) {
	if req.Body == nil || req.Size < 0 {
		return nil, ErrInvalidInput
	}
	if s.maxSize > 0 && req.Size > s.maxSize {
		return nil, ErrTooLarge
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	att := &Attachment{
		ID:        uuid.NewString(),
		Filename:  req.Filename,
		MimeType:  mimeType,
		Size:      req.Size,
		Token:     s.tokens.Issue(),
		CreatedAt: s.now(),
	}

	if err := s.blobs.Put(ctx, att.ID, req.Body, req.Size, mimeType); err != nil {
		return nil, fmt.Errorf("storing attachment bytes: %w", err)
	}
	if err := s.repo.Create(ctx, att); err != nil {
		if derr := s.blobs.Delete(ctx, att.ID); derr != nil {
			s.logger.Warn("removing orphaned attachment bytes", "attachment_id", att.ID, "error", derr)
		}
		return nil, fmt.Errorf("creating attachment: %w", err)
	}

	att.URL = s.URL(att)
	s.logger.Info("attachment uploaded", "attachment_id", att.ID, "filename", att.Filename, "size", att.Size)
	return att, nil
}

// URL returns the token-bearing path a screen uses to fetch the attachment.
func (s *Service) URL(att *Attachment) string {
	return fmt.Sprintf("%s/attachments/%s?t=%s", s.baseURL, att.ID, att.Token)
}

// Open returns the attachment and its bytes when tok is the attachment's own token.
// The caller must close the reader.
func (s *Service) Open(ctx context.Context, id, tok string) (*Attachment, io.ReadCloser, error) {
	if tok == "" {
		return nil, nil, ErrUnauthorized
	}

	att, err := s.repo.GetByToken(ctx, tok)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, fmt.Errorf("loading attachment: %w", err)
	}
	if att.ID != id || !token.Equal(att.Token, tok) {
		return nil, nil, ErrUnauthorized
	}

	body, err := s.blobs.Open(ctx, att.ID)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, nil, ErrAttachmentNotFound
		}
		return nil, nil, fmt.Errorf("opening attachment bytes: %w", err)
	}
	return att, body, nil
}

// Delete removes the attachment record and its bytes.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAttachmentNotFound
		}
		return fmt.Errorf("loading attachment: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAttachmentNotFound
		}
		return fmt.Errorf("deleting attachment: %w", err)
	}
	if err := s.blobs.Delete(ctx, id); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		s.logger.Warn("removing attachment bytes", "attachment_id", id, "error", err)
	}

	s.logger.Info("attachment deleted", "attachment_id", id)
	return nil
}

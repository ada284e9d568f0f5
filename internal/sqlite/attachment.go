package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/screen-relay/internal/domain/attachment"
	"github.com/ganot/screen-relay/internal/repository"
)

var _ attachment.Repository = (*AttachmentRepository)(nil)

const attachmentColumns = `id, filename, mime_type, size, token, created_at`

// AttachmentRepository implements attachment.Repository for SQLite
type AttachmentRepository struct {
	db *DB
}

// NewAttachmentRepository creates a new AttachmentRepository
func NewAttachmentRepository(db *DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create records attachment metadata
func (r *AttachmentRepository) Create(ctx context.Context, att *attachment.Attachment) error {
	query := `
		INSERT INTO attachments (id, filename, mime_type, size, token, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		att.ID,
		att.Filename,
		att.MimeType,
		att.Size,
		att.Token,
		att.CreatedAt.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create attachment: %w", err)
	}

	return nil
}

// Get retrieves an attachment by ID
func (r *AttachmentRepository) Get(ctx context.Context, id string) (*attachment.Attachment, error) {
	att, err := scanAttachment(r.db.QueryRowContext(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return att, nil
}

// GetByToken retrieves the attachment holding token
func (r *AttachmentRepository) GetByToken(ctx context.Context, token string) (*attachment.Attachment, error) {
	if token == "" {
		return nil, repository.ErrNotFound
	}
	att, err := scanAttachment(r.db.QueryRowContext(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE token = ?`, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment by token: %w", err)
	}
	return att, nil
}

// Delete removes attachment metadata
func (r *AttachmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanAttachment(row rowScanner) (*attachment.Attachment, error) {
	var (
		att       attachment.Attachment
		createdAt int64
	)
	if err := row.Scan(&att.ID, &att.Filename, &att.MimeType, &att.Size, &att.Token, &createdAt); err != nil {
		return nil, err
	}
	att.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &att, nil
}

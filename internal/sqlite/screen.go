package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ganot/screen-relay/internal/domain/screen"
	"github.com/ganot/screen-relay/internal/repository"
)

var _ screen.Repository = (*ScreenRepository)(nil)

const screenColumns = `id, name_en, name_zh, token, status, created_at, updated_at`

// ScreenRepository implements screen.Repository for SQLite
type ScreenRepository struct {
	db *DB
}

// NewScreenRepository creates a new ScreenRepository
func NewScreenRepository(db *DB) *ScreenRepository {
	return &ScreenRepository{db: db}
}

// Create inserts a new screen; an existing id yields repository.ErrConflict.
func (r *ScreenRepository) Create(ctx context.Context, scr *screen.Screen) error {
	query := `
		INSERT INTO screens (id, name_en, name_zh, token, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		scr.ID,
		scr.NameEn,
		scr.NameZh,
		nullableString(scr.Token),
		string(scr.Status),
		scr.CreatedAt.UnixMilli(),
		scr.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create screen: %w", err)
	}

	return nil
}

// Get retrieves a screen by ID
func (r *ScreenRepository) Get(ctx context.Context, id string) (*screen.Screen, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+screenColumns+` FROM screens WHERE id = ?`, id)
	scr, err := scanScreen(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get screen: %w", err)
	}
	return scr, nil
}

// GetByToken retrieves the screen currently holding token.
func (r *ScreenRepository) GetByToken(ctx context.Context, token string) (*screen.Screen, error) {
	if token == "" {
		return nil, repository.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+screenColumns+` FROM screens WHERE token = ?`, token)
	scr, err := scanScreen(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get screen by token: %w", err)
	}
	return scr, nil
}

// List returns all screens, newest first
func (r *ScreenRepository) List(ctx context.Context) ([]screen.Screen, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+screenColumns+` FROM screens ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list screens: %w", err)
	}
	defer rows.Close()

	screens := []screen.Screen{}
	for rows.Next() {
		scr, err := scanScreen(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan screen: %w", err)
		}
		screens = append(screens, *scr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate screens: %w", err)
	}

	return screens, nil
}

// Confirm names the screen, stores its new token and marks it active.
func (r *ScreenRepository) Confirm(ctx context.Context, id, nameEn, nameZh, token string, at time.Time) (*screen.Screen, error) {
	query := `
		UPDATE screens
		SET name_en = ?, name_zh = ?, token = ?, status = 'active', updated_at = ?
		WHERE id = ?
	`
	if err := r.execOne(ctx, query, nameEn, nameZh, token, at.UnixMilli(), id); err != nil {
		return nil, fmt.Errorf("failed to confirm screen: %w", err)
	}
	return r.Get(ctx, id)
}

// Update applies a partial name edit. An empty edit still touches updated_at.
func (r *ScreenRepository) Update(ctx context.Context, id string, upd screen.Update, at time.Time) (*screen.Screen, error) {
	sets := []string{"updated_at = ?"}
	args := []any{at.UnixMilli()}
	if upd.NameEn != nil {
		sets = append(sets, "name_en = ?")
		args = append(args, *upd.NameEn)
	}
	if upd.NameZh != nil {
		sets = append(sets, "name_zh = ?")
		args = append(args, *upd.NameZh)
	}
	args = append(args, id)

	query := `UPDATE screens SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if err := r.execOne(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update screen: %w", err)
	}
	return r.Get(ctx, id)
}

// Deactivate marks the screen inactive. The token is kept for record lookup.
func (r *ScreenRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	if err := r.execOne(ctx, `UPDATE screens SET status = 'inactive', updated_at = ? WHERE id = ?`, at.UnixMilli(), id); err != nil {
		return fmt.Errorf("failed to deactivate screen: %w", err)
	}
	return nil
}

// RegenerateToken replaces the screen's token.
func (r *ScreenRepository) RegenerateToken(ctx context.Context, id, token string, at time.Time) error {
	if err := r.execOne(ctx, `UPDATE screens SET token = ?, updated_at = ? WHERE id = ?`, token, at.UnixMilli(), id); err != nil {
		return fmt.Errorf("failed to regenerate token: %w", err)
	}
	return nil
}

// Delete removes a screen
func (r *ScreenRepository) Delete(ctx context.Context, id string) error {
	if err := r.execOne(ctx, `DELETE FROM screens WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete screen: %w", err)
	}
	return nil
}

// execOne runs a statement that must touch exactly one row.
func (r *ScreenRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScreen(row rowScanner) (*screen.Screen, error) {
	var (
		scr       screen.Screen
		token     sql.NullString
		status    string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&scr.ID, &scr.NameEn, &scr.NameZh, &token, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if token.Valid {
		scr.Token = &token.String
	}
	scr.Status = screen.Status(status)
	scr.CreatedAt = time.UnixMilli(createdAt).UTC()
	scr.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &scr, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

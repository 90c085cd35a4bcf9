package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// Document names; the server treats bodies as opaque JSON.
const (
	DocSessions = "sessions"
	DocSettings = "settings"
)

type Document struct {
	UserID    string
	Name      string
	Body      string
	Rev       int64
	UpdatedAt time.Time
}

// DocumentRepository stores one JSON document per (user, name) with a
// monotonically increasing revision. Revisions are what lets clients detect
// remote changes without the server understanding document contents.
type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Get(ctx context.Context, userID, name string) (*Document, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT user_id, name, body, rev, updated_at
		 FROM documents
		 WHERE user_id = ? AND name = ?`,
		userID,
		name,
	)

	var doc Document
	var updatedAt string
	if err := row.Scan(&doc.UserID, &doc.Name, &doc.Body, &doc.Rev, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document %s: %w", name, err)
	}

	parsed, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse document updated_at: %w", err)
	}
	doc.UpdatedAt = parsed
	return &doc, nil
}

// Save replaces the document body and bumps its revision, returning the new
// revision.
func (r *DocumentRepository) Save(ctx context.Context, userID, name, body string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var rev int64
	err = tx.QueryRowContext(
		ctx,
		`SELECT rev FROM documents WHERE user_id = ? AND name = ?`,
		userID,
		name,
	).Scan(&rev)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("read document rev: %w", err)
	}
	rev++

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO documents (user_id, name, body, rev, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, name) DO UPDATE SET body = ?, rev = ?, updated_at = ?`,
		userID, name, body, rev, now,
		body, rev, now,
	); err != nil {
		return 0, fmt.Errorf("save document %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit document save: %w", err)
	}
	return rev, nil
}

// MaxRev returns the highest revision across the user's documents, 0 when
// the user has none. The watch endpoint polls this.
func (r *DocumentRepository) MaxRev(ctx context.Context, userID string) (int64, error) {
	var rev sql.NullInt64
	if err := r.db.QueryRowContext(
		ctx,
		`SELECT MAX(rev) FROM documents WHERE user_id = ?`,
		userID,
	).Scan(&rev); err != nil {
		return 0, fmt.Errorf("max document rev: %w", err)
	}
	return rev.Int64, nil
}

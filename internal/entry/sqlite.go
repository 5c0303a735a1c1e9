package entry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	busyTimeout  = 5000 // milliseconds
	defaultLimit = 50
)

// SQLiteRepository is a Repository backed by a SQLite file.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ Repository = (*SQLiteRepository)(nil)

// OpenSQLite opens (creating if needed) the database at path and applies
// pending migrations. ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string, log *slog.Logger) (*SQLiteRepository, error) {
	if log == nil {
		log = slog.Default()
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", path, busyTimeout)
	if path == ":memory:" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Each connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrateUp(ctx, db, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Create assigns an id when empty and stores e at version 1.
func (r *SQLiteRepository) Create(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Annotations == "" {
		e.Annotations = EmptyAnnotations
	}
	now := r.now().UTC()
	e.Version = 1
	e.ContentHash = HashBody(e.Body)
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO entries (id, user_id, title, body, annotations, version, content_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Title, e.Body, e.Annotations, e.Version, e.ContentHash,
		now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert entry %s: %w", e.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Entry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, body, annotations, version, content_hash, created_at, updated_at
		FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", id, err)
	}
	return e, nil
}

// List returns a user's entries, most recently updated first.
func (r *SQLiteRepository) List(ctx context.Context, userID string, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, body, annotations, version, content_hash, created_at, updated_at
		FROM entries WHERE user_id = ?
		ORDER BY updated_at DESC, id
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Save writes e if the stored version still equals e.Version. On success
// e.Version is incremented.
func (r *SQLiteRepository) Save(ctx context.Context, e *Entry) error {
	now := r.now().UTC()
	hash := HashBody(e.Body)
	res, err := r.db.ExecContext(ctx, `
		UPDATE entries
		SET title = ?, body = ?, annotations = ?, content_hash = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		e.Title, e.Body, e.Annotations, hash, now.UnixMilli(), e.ID, e.Version)
	if err != nil {
		return fmt.Errorf("update entry %s: %w", e.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entry %s: %w", e.ID, err)
	}
	if n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries WHERE id = ?", e.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check entry %s: %w", e.ID, err)
		}
		if exists == 0 {
			return ErrEntryNotFound
		}
		return ErrVersionConflict
	}

	e.Version++
	e.ContentHash = hash
	e.UpdatedAt = now
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var e Entry
	var created, updated int64
	if err := s.Scan(&e.ID, &e.UserID, &e.Title, &e.Body, &e.Annotations,
		&e.Version, &e.ContentHash, &created, &updated); err != nil {
		return nil, err
	}
	e.CreatedAt = time.UnixMilli(created).UTC()
	e.UpdatedAt = time.UnixMilli(updated).UTC()
	return &e, nil
}

// Package entry persists diary entries together with their serialized
// annotation sets.
package entry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

var (
	ErrEntryNotFound   = errors.New("entry not found")
	ErrVersionConflict = errors.New("entry version conflict")
)

// EmptyAnnotations is the wire form of an entry with no annotations.
const EmptyAnnotations = `{"comments":[],"highlights":[]}`

// Entry is one diary entry. Annotations holds the wire JSON of its
// annotation set; highlight ids are not part of it.
type Entry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Annotations string    `json:"-"`
	Version     int64     `json:"version"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Repository stores entries. Save succeeds only when the stored version equals
// e.Version and then increments it.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, userID string, limit int) ([]*Entry, error)
	Save(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id string) error
}

// HashBody returns the hex sha256 of body.
func HashBody(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

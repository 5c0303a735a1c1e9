package entry

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "diary.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestCreateAndGet(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	e := &Entry{UserID: "u1", Title: "월요일", Body: "오늘은 좋았다."}
	require.NoError(t, repo.Create(ctx, e))
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, int64(1), e.Version)
	assert.Equal(t, HashBody("오늘은 좋았다."), e.ContentHash)

	got, err := repo.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Body, got.Body)
	assert.Equal(t, EmptyAnnotations, got.Annotations)
	assert.Equal(t, e.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())
}

func TestGetMissing(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestSaveOptimisticVersion(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	e := &Entry{UserID: "u1", Body: "first"}
	require.NoError(t, repo.Create(ctx, e))

	stale := *e

	e.Body = "second"
	require.NoError(t, repo.Save(ctx, e))
	assert.Equal(t, int64(2), e.Version)

	stale.Body = "lost update"
	assert.ErrorIs(t, repo.Save(ctx, &stale), ErrVersionConflict)

	got, err := repo.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Body)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, HashBody("second"), got.ContentHash)
}

func TestSaveMissing(t *testing.T) {
	repo := openTestRepo(t)
	err := repo.Save(context.Background(), &Entry{ID: "ghost", Version: 1})
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestListOrdersByUpdated(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	clock := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	a := &Entry{UserID: "u1", Body: "a"}
	require.NoError(t, repo.Create(ctx, a))
	clock = clock.Add(time.Minute)
	b := &Entry{UserID: "u1", Body: "b"}
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.Create(ctx, &Entry{UserID: "u2", Body: "other"}))

	clock = clock.Add(time.Minute)
	a.Body = "a2"
	require.NoError(t, repo.Save(ctx, a))

	list, err := repo.List(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	list, err = repo.List(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDelete(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	e := &Entry{UserID: "u1", Body: "bye"}
	require.NoError(t, repo.Create(ctx, e))
	require.NoError(t, repo.Delete(ctx, e.ID))
	assert.ErrorIs(t, repo.Delete(ctx, e.ID), ErrEntryNotFound)
	_, err := repo.Get(ctx, e.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestInMemoryDatabase(t *testing.T) {
	repo, err := OpenSQLite(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	defer repo.Close()

	e := &Entry{UserID: "u1", Body: "memory"}
	require.NoError(t, repo.Create(context.Background(), e))
	_, err = repo.Get(context.Background(), e.ID)
	assert.NoError(t, err)
}

func TestMigrationsRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	migrations, err := loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	require.NoError(t, migrateDown(ctx, repo.db, len(migrations)))
	var name string
	err = repo.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='entries'").Scan(&name)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, migrateUp(ctx, repo.db, slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, repo.Create(ctx, &Entry{UserID: "u1", Body: "again"}))
}

func TestParseMigrationName(t *testing.T) {
	v, name, dir, err := parseMigrationName("0002_entries_user_index.up.sql")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, "entries_user_index", name)
	assert.Equal(t, "up", dir)

	for _, bad := range []string{"0001_x.sql", "abc_x.up.sql", "0000_x.down.sql", "0003.up.sql"} {
		_, _, _, err := parseMigrationName(bad)
		assert.Error(t, err, bad)
	}
}

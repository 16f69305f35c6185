package store

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartlink/platform"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := New(db)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestCreateAndFindRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, CreateParams{
		Slug:        "abcd1234",
		Title:       "Spring Sale",
		Description: "Fresh produce, surplus prices",
		ImageURL:    "https://cdn.example.com/sale.png",
		Path:        "store/spring-sale",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := s.FindBySlug(ctx, "abcd1234")
	require.NoError(t, err)
	assert.Equal(t, created.Slug, got.Slug)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Description, got.Description)
	assert.Equal(t, created.ImageURL, got.ImageURL)
	assert.Equal(t, created.Path, got.Path)
	assert.Zero(t, got.ClickCount)
	assert.Zero(t, got.ClickCountIOS)
}

func TestFindBySlugNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.FindBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDuplicateSlug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, CreateParams{Slug: "dupe123", Path: "a"})
	require.NoError(t, err)

	_, err = s.Create(ctx, CreateParams{Slug: "dupe123", Path: "b"})
	assert.Error(t, err)
}

func TestIncrementClicks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, CreateParams{Slug: "abcd1234", Path: "p"})
	require.NoError(t, err)

	require.NoError(t, s.IncrementClicks(ctx, "abcd1234", platform.IOS, 1))
	require.NoError(t, s.IncrementClicks(ctx, "abcd1234", platform.Android, 2))
	require.NoError(t, s.IncrementClicks(ctx, "abcd1234", platform.Other, 3))

	got, err := s.FindBySlug(ctx, "abcd1234")
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.ClickCount)
	assert.Equal(t, int64(1), got.ClickCountIOS)
	assert.Equal(t, int64(2), got.ClickCountAndroid)
	assert.Equal(t, int64(3), got.ClickCountOther)
}

func TestIncrementClicksMissingSlug(t *testing.T) {
	s := newTestStore(t)

	err := s.IncrementClicks(context.Background(), "missing", platform.IOS, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIncrementClicksConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, CreateParams{Slug: "abcd1234", Path: "p"})
	require.NoError(t, err)

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.IncrementClicks(ctx, "abcd1234", platform.IOS, 1))
		}()
	}
	wg.Wait()

	got, err := s.FindBySlug(ctx, "abcd1234")
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.ClickCount)
	assert.Equal(t, int64(n), got.ClickCountIOS)
}

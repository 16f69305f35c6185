// Package store persists link records and their click counters.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smartlink/platform"
)

// ErrNotFound is returned when no link exists for a slug.
var ErrNotFound = errors.New("link not found")

// Link is a persisted deep-link record. Counters only ever grow; they are
// mutated exclusively through IncrementClicks.
type Link struct {
	ID                int64     `json:"id"`
	Slug              string    `json:"slug"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	ImageURL          string    `json:"image_url"`
	Path              string    `json:"path"`
	ClickCount        int64     `json:"click_count"`
	ClickCountIOS     int64     `json:"click_count_ios"`
	ClickCountAndroid int64     `json:"click_count_android"`
	ClickCountOther   int64     `json:"click_count_other"`
	CreatedAt         time.Time `json:"created_at"`
}

// CreateParams are the caller-supplied fields of a new link.
type CreateParams struct {
	Slug        string
	Title       string
	Description string
	ImageURL    string
	Path        string
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS links (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	slug                TEXT NOT NULL UNIQUE,
	title               TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL DEFAULT '',
	image_url           TEXT NOT NULL DEFAULT '',
	path                TEXT NOT NULL DEFAULT '',
	click_count         INTEGER NOT NULL DEFAULT 0,
	click_count_ios     INTEGER NOT NULL DEFAULT 0,
	click_count_android INTEGER NOT NULL DEFAULT 0,
	click_count_other   INTEGER NOT NULL DEFAULT 0,
	created_at          TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Migrate ensures the links table exists.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

const selectLink = `
SELECT id, slug, title, description, image_url, path,
       click_count, click_count_ios, click_count_android, click_count_other,
       created_at
FROM links WHERE slug = ?`

// FindBySlug returns the link for slug, or ErrNotFound.
func (s *Store) FindBySlug(ctx context.Context, slug string) (*Link, error) {
	var l Link
	err := s.db.QueryRowContext(ctx, selectLink, slug).Scan(
		&l.ID, &l.Slug, &l.Title, &l.Description, &l.ImageURL, &l.Path,
		&l.ClickCount, &l.ClickCountIOS, &l.ClickCountAndroid, &l.ClickCountOther,
		&l.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserts a new link and returns the stored record.
func (s *Store) Create(ctx context.Context, p CreateParams) (*Link, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO links (slug, title, description, image_url, path) VALUES (?, ?, ?, ?, ?)`,
		p.Slug, p.Title, p.Description, p.ImageURL, p.Path,
	)
	if err != nil {
		return nil, err
	}
	return s.FindBySlug(ctx, p.Slug)
}

var platformColumn = map[platform.Platform]string{
	platform.IOS:     "click_count_ios",
	platform.Android: "click_count_android",
	platform.Other:   "click_count_other",
}

// IncrementClicks adds n to the total counter and to the per-platform counter
// in a single UPDATE, so concurrent callers never lose increments. There is
// deliberately no read step.
func (s *Store) IncrementClicks(ctx context.Context, slug string, p platform.Platform, n int64) error {
	col, ok := platformColumn[p]
	if !ok {
		col = platformColumn[platform.Other]
	}
	q := fmt.Sprintf(
		"UPDATE links SET click_count = click_count + ?, %s = %s + ? WHERE slug = ?",
		col, col,
	)
	res, err := s.db.ExecContext(ctx, q, n, n, slug)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}

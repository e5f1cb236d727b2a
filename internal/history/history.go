// Package history keeps a local SQLite log of published posts.
package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one successful publish.
type Entry struct {
	ID          string    `db:"id"`
	Platform    string    `db:"platform"`
	PostID      string    `db:"post_id"`
	URL         string    `db:"url"`
	Title       string    `db:"title"`
	Status      string    `db:"status"`
	PublishedAt time.Time `db:"published_at"`
}

// Store is a history database handle.
type Store struct {
	db *sqlx.DB
}

// DefaultPath returns the history database location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(dir, "xpublish", "history.db"), nil
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", "file:"+path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores e. A missing ID or PublishedAt is filled in; the stored
// entry is returned.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.Platform == "" {
		return Entry{}, errors.New("history entry has no platform")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.PublishedAt.IsZero() {
		e.PublishedAt = time.Now()
	}
	e.PublishedAt = e.PublishedAt.UTC()

	_, err := s.db.NamedExecContext(ctx, `insert into publish(
		id, platform, post_id, url, title, status, published_at
	) values (
		:id, :platform, :post_id, :url, :title, :status, :published_at
	)`, e)
	if err != nil {
		return Entry{}, fmt.Errorf("inserting entry: %w", err)
	}
	return e, nil
}

// List returns the newest entries first. A limit of 0 or less returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `select * from publish order by published_at desc, rowid desc`
	args := []any{}
	if limit > 0 {
		query += ` limit ?`
		args = append(args, limit)
	}

	var entries []Entry
	if err := s.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}

// ForPlatform returns every entry of one platform, newest first.
func (s *Store) ForPlatform(ctx context.Context, platform string) ([]Entry, error) {
	var entries []Entry
	err := s.db.SelectContext(ctx, &entries,
		`select * from publish where platform = ? order by published_at desc, rowid desc`, platform)
	if err != nil {
		return nil, fmt.Errorf("listing %s entries: %w", platform, err)
	}
	return entries, nil
}

func (s *Store) createTables() error {
	_, err := s.db.Exec(`create table if not exists publish(
		id           text not null primary key,
		platform     text not null,
		post_id      text not null,
		url          text not null,
		title        text not null,
		status       text not null,
		published_at DATETIME not null
	)`)
	if err != nil {
		return fmt.Errorf("creating publish table: %w", err)
	}

	_, err = s.db.Exec(`create index if not exists publish_platform on publish(platform)`)
	if err != nil {
		return fmt.Errorf("creating publish index: %w", err)
	}
	return nil
}

// Package deckstore caches generated flashcard results in SQLite, keyed by
// the SHA-256 of the uploaded bytes.
package deckstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound means no result is cached under the given hash.
var ErrNotFound = errors.New("deck result not found")

const schema = `
CREATE TABLE IF NOT EXISTS deck_results (
	content_hash  TEXT PRIMARY KEY,
	file_name     TEXT NOT NULL,
	title         TEXT NOT NULL,
	flashcards    INTEGER NOT NULL,
	chapters      INTEGER NOT NULL,
	used_fallback INTEGER NOT NULL,
	payload       BLOB NOT NULL,
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_deck_results_created ON deck_results(created_at);
`

// Entry is the listing view of a cached result.
type Entry struct {
	Hash         string    `json:"hash"`
	FileName     string    `json:"fileName"`
	Title        string    `json:"documentTitle"`
	Flashcards   int       `json:"flashcardCount"`
	Chapters     int       `json:"chapterCount"`
	UsedFallback bool      `json:"usedFallback"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Record is a cached result. Payload is opaque to the store.
type Record struct {
	Entry
	Payload []byte
}

// Store is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	s, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and applies the schema.
func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Get returns the record cached under hash, or ErrNotFound.
func (s *Store) Get(ctx context.Context, hash string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT content_hash, file_name, title, flashcards, chapters, used_fallback, payload, created_at
		FROM deck_results WHERE content_hash = ?`, hash)

	var rec Record
	var created int64
	err := row.Scan(&rec.Hash, &rec.FileName, &rec.Title, &rec.Flashcards, &rec.Chapters,
		&rec.UsedFallback, &rec.Payload, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", hash, err)
	}
	rec.CreatedAt = time.UnixMilli(created).UTC()
	return &rec, nil
}

// Put stores rec, replacing any record with the same hash. A zero
// CreatedAt is set to now.
func (s *Store) Put(ctx context.Context, rec Record) error {
	if rec.Hash == "" {
		return errors.New("put: empty hash")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deck_results (content_hash, file_name, title, flashcards, chapters, used_fallback, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO UPDATE SET
			file_name = excluded.file_name,
			title = excluded.title,
			flashcards = excluded.flashcards,
			chapters = excluded.chapters,
			used_fallback = excluded.used_fallback,
			payload = excluded.payload,
			created_at = excluded.created_at`,
		rec.Hash, rec.FileName, rec.Title, rec.Flashcards, rec.Chapters,
		rec.UsedFallback, rec.Payload, rec.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("put %s: %w", rec.Hash, err)
	}
	return nil
}

// List returns up to limit entries, newest first. limit <= 0 means 100.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT content_hash, file_name, title, flashcards, chapters, used_fallback, created_at
		FROM deck_results ORDER BY created_at DESC, content_hash LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.Hash, &e.FileName, &e.Title, &e.Flashcards, &e.Chapters, &e.UsedFallback, &created); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		e.CreatedAt = time.UnixMilli(created).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the record under hash, or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, hash string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM deck_results WHERE content_hash = ?`, hash)
	if err != nil {
		return fmt.Errorf("delete %s: %w", hash, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", hash, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

package deckstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PutGet(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := Record{
		Entry: Entry{
			Hash: "abc", FileName: "bio.pdf", Title: "Biology",
			Flashcards: 12, Chapters: 3, UsedFallback: true, CreatedAt: created,
		},
		Payload: []byte(`{"flashcards":[]}`),
	}
	if err := s.Put(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if got.Entry != rec.Entry {
		t.Errorf("entry = %+v, want %+v", got.Entry, rec.Entry)
	}
	if string(got.Payload) != string(rec.Payload) {
		t.Errorf("payload = %s", got.Payload)
	}
}

func TestStore_PutReplaces(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	s.Put(ctx, Record{Entry: Entry{Hash: "h", Title: "Old"}, Payload: []byte("1")})
	if err := s.Put(ctx, Record{Entry: Entry{Hash: "h", Title: "New"}, Payload: []byte("2")}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "h")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "New" || string(got.Payload) != "2" {
		t.Errorf("got %+v", got)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := openTest(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_PutEmptyHash(t *testing.T) {
	s := openTest(t)
	if err := s.Put(context.Background(), Record{}); err == nil {
		t.Error("expected error for empty hash")
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, h := range []string{"a", "b", "c"} {
		err := s.Put(ctx, Record{
			Entry:   Entry{Hash: h, CreatedAt: base.Add(time.Duration(i) * time.Hour)},
			Payload: []byte("{}"),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 || entries[0].Hash != "c" || entries[2].Hash != "a" {
		t.Errorf("entries = %+v", entries)
	}

	entries, err = s.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("limit 2 returned %d entries", len(entries))
	}
}

func TestStore_ListEmpty(t *testing.T) {
	s := openTest(t)
	entries, err := s.List(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", entries)
	}
}

func TestStore_Delete(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	s.Put(ctx, Record{Entry: Entry{Hash: "gone"}, Payload: []byte("{}")})

	if err := s.Delete(ctx, "gone"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

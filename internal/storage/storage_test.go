package storage

import (
	"database/sql"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSeenRoundTrip(t *testing.T) {
	store := newTestStore(t)
	at := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	if err := store.TouchSeen("#chan", "alice", "a.example.com", "hello world", at); err != nil {
		t.Fatalf("TouchSeen: %v", err)
	}

	rec, err := store.LastSeen("#chan", "alice")
	if err != nil {
		t.Fatalf("LastSeen: %v", err)
	}
	if rec.Host != "a.example.com" || rec.LastWords != "hello world" {
		t.Errorf("got host %q words %q", rec.Host, rec.LastWords)
	}
	if !rec.LastSeen.Equal(at) {
		t.Errorf("LastSeen = %v, want %v", rec.LastSeen, at)
	}
}

func TestSeenUpdatesInPlace(t *testing.T) {
	store := newTestStore(t)
	first := time.Now().Add(-time.Hour)
	second := time.Now().Truncate(time.Second)

	if err := store.TouchSeen("#chan", "alice", "a.example.com", "old", first); err != nil {
		t.Fatalf("TouchSeen: %v", err)
	}
	// same host, new nick: one row per (channel, host)
	if err := store.TouchSeen("#chan", "alice2", "a.example.com", "new", second); err != nil {
		t.Fatalf("TouchSeen: %v", err)
	}

	if _, err := store.LastSeen("#chan", "alice"); err != sql.ErrNoRows {
		t.Errorf("old nick lookup: err = %v, want sql.ErrNoRows", err)
	}
	rec, err := store.LastSeen("#chan", "alice2")
	if err != nil {
		t.Fatalf("LastSeen: %v", err)
	}
	if rec.LastWords != "new" {
		t.Errorf("LastWords = %q, want new", rec.LastWords)
	}
}

func TestSeenMiss(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.LastSeen("#chan", "nobody"); err != sql.ErrNoRows {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestValueRoundTrip(t *testing.T) {
	store, err := OpenMemory()
	if err != nil {
		t.Fatalf("opening in-memory store: %v", err)
	}
	defer store.Close()

	if _, ok, err := store.Value("seen", "missing"); err != nil || ok {
		t.Fatalf("miss: ok = %v, err = %v", ok, err)
	}

	if err := store.SetValue("seen", "k", "v1"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := store.SetValue("seen", "k", "v2"); err != nil {
		t.Fatalf("SetValue overwrite: %v", err)
	}

	value, ok, err := store.Value("seen", "k")
	if err != nil || !ok {
		t.Fatalf("Value: ok = %v, err = %v", ok, err)
	}
	if value != "v2" {
		t.Errorf("value = %q, want v2", value)
	}

	// other plugins don't see it
	if _, ok, _ := store.Value("other", "k"); ok {
		t.Error("value should be namespaced per plugin")
	}
}

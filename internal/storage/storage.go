// Package storage persists plugin data in a local SQLite database:
// last-seen records and a generic per-plugin key/value table.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS seen (
	channel    TEXT NOT NULL,
	nick       TEXT NOT NULL,
	host       TEXT NOT NULL,
	last_seen  INTEGER NOT NULL,
	last_words TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (channel, host)
);

CREATE TABLE IF NOT EXISTS plugin_values (
	plugin TEXT NOT NULL,
	key    TEXT NOT NULL,
	value  TEXT NOT NULL,
	PRIMARY KEY (plugin, key)
);
`

// Store wraps the SQLite handle. Safe for use from threaded command
// handlers; database/sql serializes access.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database under the given directory and
// applies the schema.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	path := filepath.Join(dir, "botologist.db")
	return open(fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path))
}

// OpenMemory opens a throwaway in-memory database, used by tests
func OpenMemory() (*Store, error) {
	return open("file::memory:?cache=shared")
}

func open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// SeenRecord is the stored sighting of one user in one channel
type SeenRecord struct {
	Channel   string
	Nick      string
	Host      string
	LastSeen  time.Time
	LastWords string
}

// TouchSeen records that a user was active in a channel just now
func (s *Store) TouchSeen(channel, nick, host, words string, at time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO seen (channel, nick, host, last_seen, last_words)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (channel, host) DO UPDATE SET
			nick = excluded.nick,
			last_seen = excluded.last_seen,
			last_words = excluded.last_words`,
		channel, nick, host, at.Unix(), words)
	if err != nil {
		return fmt.Errorf("recording sighting: %w", err)
	}
	return nil
}

// LastSeen returns the most recent sighting of a nick in a channel.
// A miss returns sql.ErrNoRows.
func (s *Store) LastSeen(channel, nick string) (*SeenRecord, error) {
	row := s.db.QueryRow(`
		SELECT channel, nick, host, last_seen, last_words
		FROM seen
		WHERE channel = ? AND nick = ?
		ORDER BY last_seen DESC
		LIMIT 1`,
		channel, nick)

	var rec SeenRecord
	var ts int64
	if err := row.Scan(&rec.Channel, &rec.Nick, &rec.Host, &ts, &rec.LastWords); err != nil {
		return nil, err
	}
	rec.LastSeen = time.Unix(ts, 0)
	return &rec, nil
}

// SetValue stores one key/value pair under a plugin's namespace
func (s *Store) SetValue(plugin, key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO plugin_values (plugin, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT (plugin, key) DO UPDATE SET value = excluded.value`,
		plugin, key, value)
	if err != nil {
		return fmt.Errorf("storing value for %s/%s: %w", plugin, key, err)
	}
	return nil
}

// Value fetches one stored value. A miss returns "", false.
func (s *Store) Value(plugin, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM plugin_values WHERE plugin = ? AND key = ?`,
		plugin, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading value for %s/%s: %w", plugin, key, err)
	}
	return value, true, nil
}

package speech

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Cache stores measured utterance durations reported by the synthesizer, so
// later estimates for the same text match what was actually heard.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (or creates) the SQLite utterance cache at dir/speech.db.
func OpenCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "speech.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening speech cache: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS utterances (
		text_hash   TEXT PRIMARY KEY,
		text        TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		measured_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating utterances table: %w", err)
	}

	return &Cache{db: db}, nil
}

// Lookup returns the cached duration for text, if one has been measured.
func (c *Cache) Lookup(text string) (time.Duration, bool, error) {
	var ms int64
	err := c.db.QueryRow(
		`SELECT duration_ms FROM utterances WHERE text_hash = ?`,
		hashText(text),
	).Scan(&ms)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return time.Duration(ms) * time.Millisecond, true, nil
}

// Store records the measured duration of an utterance, replacing any earlier
// measurement.
func (c *Cache) Store(text string, d time.Duration) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO utterances (text_hash, text, duration_ms) VALUES (?, ?, ?)`,
		hashText(text), text, d.Milliseconds(),
	)
	return err
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Package cache persists fetched raw messages in a local SQLite file so
// a dossier can be rebuilt without re-authenticating or re-fetching.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/mwhitfield/dossier/internal/logger"
	"github.com/mwhitfield/dossier/pkg/mail"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
    mailbox     TEXT NOT NULL,
    position    INTEGER NOT NULL,
    id          TEXT NOT NULL,
    subject     TEXT,
    sender      TEXT,
    date        TEXT,
    text_body   TEXT,
    html_body   TEXT,
    images_json TEXT,
    cached_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (mailbox, position)
);

CREATE INDEX IF NOT EXISTS idx_messages_mailbox ON messages(mailbox);
`

// Cache is a SQLite-backed store of raw fetched messages.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	logger.Debug("cache opened", "path", path)
	return &Cache{db: db}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Put replaces the cached message list for a mailbox. Positions record
// the fetch order so Get can reproduce it exactly.
func (c *Cache) Put(mailbox string, messages []mail.Message) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM messages WHERE mailbox = ?`, mailbox); err != nil {
		return fmt.Errorf("failed to clear cached mailbox: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO messages (mailbox, position, id, subject, sender, date, text_body, html_body, images_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare cache insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, m := range messages {
		imagesJSON, err := json.Marshal(m.Images)
		if err != nil {
			return fmt.Errorf("failed to encode image map for %s: %w", m.ID, err)
		}
		if _, err := stmt.Exec(mailbox, i, m.ID, m.Subject, m.Sender, m.Date,
			m.TextBody, m.HTMLBody, string(imagesJSON)); err != nil {
			return fmt.Errorf("failed to cache message %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache transaction: %w", err)
	}

	logger.Info("cached messages", "mailbox", mailbox, "count", len(messages))
	return nil
}

// Get returns the cached message list for a mailbox in original fetch
// order. The second return value reports whether the mailbox had a cache
// entry at all.
func (c *Cache) Get(mailbox string) ([]mail.Message, bool, error) {
	rows, err := c.db.Query(`
		SELECT id, subject, sender, date, text_body, html_body, images_json
		FROM messages WHERE mailbox = ? ORDER BY position`, mailbox)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query cache: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []mail.Message
	for rows.Next() {
		var m mail.Message
		var imagesJSON string
		if err := rows.Scan(&m.ID, &m.Subject, &m.Sender, &m.Date,
			&m.TextBody, &m.HTMLBody, &imagesJSON); err != nil {
			return nil, false, fmt.Errorf("failed to scan cached message: %w", err)
		}
		if imagesJSON != "" && imagesJSON != "null" {
			if err := json.Unmarshal([]byte(imagesJSON), &m.Images); err != nil {
				return nil, false, fmt.Errorf("failed to decode image map: %w", err)
			}
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to read cache rows: %w", err)
	}

	return messages, len(messages) > 0, nil
}

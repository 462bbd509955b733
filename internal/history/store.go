// Package history keeps a small SQLite ledger of decode outcomes: one row
// per completed yenc.Response, so a caller can audit CRC mismatches and
// other decode failures after the fact without re-running the download.
// An article missing from every provider yields no Response and no row.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/datallboy/yencore/internal/yenc"
)

// Entry is one row of the decode_history table.
type Entry struct {
	ID           int64
	DecoderID    string
	MessageID    string
	Status       string
	BytesDecoded int64
	CRC32        uint32
	CRCExpected  uint32
	HasCRC       bool
	DecodedAt    time.Time
}

// Store wraps a single-file SQLite database recording decode history.
type Store struct {
	db *sql.DB
}

// Open creates (or reuses) the sqlite file at path and ensures its schema
// exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not prepare schema: %w", err)
	}
	return s, nil
}

func (s *Store) createSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS decode_history (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	decoder_id    TEXT NOT NULL,
	message_id    TEXT NOT NULL,
	status        TEXT NOT NULL,
	bytes_decoded INTEGER NOT NULL,
	crc32         INTEGER NOT NULL,
	crc_expected  INTEGER NOT NULL,
	has_crc       INTEGER NOT NULL,
	decoded_at    DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decode_history_decoded_at ON decode_history(decoded_at);
`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts one row describing the outcome of decoding resp.
func (s *Store) Record(ctx context.Context, resp *yenc.Response, messageID string) error {
	expected, hasCRC := resp.CRCExpected, resp.HasCRC || resp.HasPCRC
	if resp.HasPCRC {
		expected = resp.PCRCExpected
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decode_history
			(decoder_id, message_id, status, bytes_decoded, crc32, crc_expected, has_crc, decoded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		resp.DecoderID.String(), messageID, resp.Status().String(), resp.BytesDecoded,
		resp.CRC32, expected, hasCRC, time.Now(),
	)
	return err
}

// Recent returns the most recent limit rows, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, decoder_id, message_id, status, bytes_decoded, crc32, crc_expected, has_crc, decoded_at
		FROM decode_history
		ORDER BY decoded_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decode history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.DecoderID, &e.MessageID, &e.Status,
			&e.BytesDecoded, &e.CRC32, &e.CRCExpected, &e.HasCRC, &e.DecodedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decode history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

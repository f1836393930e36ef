// Package journal stores posted replies in SQLite for later inspection.
// The reply loop only writes to it.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"replybot/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLite implements domain.Journal.
var _ domain.Journal = (*SQLite)(nil)

type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates (or opens) the journal database at dbPath and migrates it.
func Open(dbPath string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create journal directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("cannot open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := RunMigrations(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal migration failed: %w", err)
	}
	return &SQLite{db: db, logger: logger}, nil
}

func (s *SQLite) Record(ctx context.Context, e domain.JournalEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO replies (run_id, mode, platform, channel_id, provider, source, content, message_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Mode, e.Platform, e.ChannelID, e.Provider, e.Source, e.Content, e.MessageID, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record reply: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, mode, platform, channel_id, provider, source, content, message_id, created_at
		 FROM replies ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query replies: %w", err)
	}
	defer rows.Close()

	var out []domain.JournalEntry
	for rows.Next() {
		var e domain.JournalEntry
		if err := rows.Scan(&e.ID, &e.RunID, &e.Mode, &e.Platform, &e.ChannelID,
			&e.Provider, &e.Source, &e.Content, &e.MessageID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

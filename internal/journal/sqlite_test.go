package journal

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"replybot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTest(t *testing.T) *SQLite {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "nested", "journal.db"), testLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSQLite_RecordAndRecent(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, content := range []string{"first", "second", "third"} {
		err := j.Record(ctx, domain.JournalEntry{
			RunID:     "run-1",
			Mode:      "ai",
			Platform:  "discord",
			ChannelID: "c1",
			Provider:  "gpt",
			Source:    "prompt",
			Content:   content,
			MessageID: "m" + content,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("record %s: %v", content, err)
		}
	}

	got, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Content != "third" || got[1].Content != "second" {
		t.Fatalf("expected newest first, got %q, %q", got[0].Content, got[1].Content)
	}
	if got[0].ID == 0 || got[0].RunID != "run-1" || got[0].Provider != "gpt" || got[0].MessageID != "mthird" {
		t.Fatalf("unexpected entry: %+v", got[0])
	}
	if !got[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("unexpected created_at %v", got[0].CreatedAt)
	}
}

func TestSQLite_RecordFillsCreatedAt(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()
	if err := j.Record(ctx, domain.JournalEntry{Mode: "echo", Platform: "slack", ChannelID: "C1", Content: "hi"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := j.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 || got[0].CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set, got %+v", got)
	}
}

func TestSQLite_ReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	j.Record(context.Background(), domain.JournalEntry{Mode: "ai", Platform: "discord", ChannelID: "c", Content: "kept"})
	j.Close()

	j, err = Open(path, testLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()
	got, _ := j.Recent(context.Background(), 10)
	if len(got) != 1 || got[0].Content != "kept" {
		t.Fatalf("expected entry to survive reopen, got %+v", got)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := RunMigrations(db, testLogger()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	v, err := GetSchemaVersion(db)
	if err != nil {
		t.Fatal(err)
	}
	if v != schemaVersion {
		t.Fatalf("expected version %d, got %d", schemaVersion, v)
	}
}

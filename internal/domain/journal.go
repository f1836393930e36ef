package domain

import (
	"context"
	"time"
)

// Journal records replies that were posted. It is write-mostly audit output.
type Journal interface {
	Record(ctx context.Context, entry JournalEntry) error
	Recent(ctx context.Context, limit int) ([]JournalEntry, error)
	Close() error
}

type JournalEntry struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Mode      string    `json:"mode"`
	Platform  string    `json:"platform"`
	ChannelID string    `json:"channel_id"`
	Provider  string    `json:"provider,omitempty"`
	Source    string    `json:"source,omitempty"` // prompt or echoed candidate
	Content   string    `json:"content"`
	MessageID string    `json:"message_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

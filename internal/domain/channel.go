package domain

import "context"

// ChatClient is the interface for a chat platform's REST surface.
// History returns messages newest first.
type ChatClient interface {
	Name() string
	History(ctx context.Context, channelID string, limit int) ([]ChannelMessage, error)
	Post(ctx context.Context, channelID string, content string) (string, error)
	Self(ctx context.Context) (string, error)
}

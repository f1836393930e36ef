package domain

import "time"

// ChannelMessage is one message fetched from a chat channel's history.
type ChannelMessage struct {
	ID         string
	ChannelID  string
	AuthorID   string
	AuthorName string
	Bot        bool
	Content    string
	Timestamp  time.Time
}

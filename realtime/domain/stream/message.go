package stream

import (
	"context"
	"time"
)

// Kind discriminates text channels from voice channels. Voice channels
// never contribute to unread counts.
type Kind string

const (
	KindText  Kind = "text"
	KindVoice Kind = "voice"
)

// Channel describes one channel of the workspace.
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Message is one entry of a channel's append-only message stream.
type Message struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Reader exposes the channel/message stream the unread tracker consumes.
// The stream is owned by the replication layer; this side only reads it.
type Reader interface {
	// Channels lists all channels currently known.
	Channels(ctx context.Context) ([]Channel, error)

	// Messages returns a channel's messages in creation order.
	Messages(ctx context.Context, channelID string) ([]Message, error)
}

package repository

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"github.com/skylark-im/skylark/realtime/domain/stream"
)

// MemoryStream implements stream.Reader in memory. The replication layer
// (or a test) appends; the unread tracker only reads.
type MemoryStream struct {
	mu       sync.Mutex
	channels []stream.Channel
	messages map[string][]stream.Message
}

func NewMemoryStream() *MemoryStream {
	return &MemoryStream{
		messages: make(map[string][]stream.Message),
	}
}

// AddChannel registers a channel. Re-adding an existing ID is a no-op.
func (m *MemoryStream) AddChannel(ch stream.Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lo.ContainsBy(m.channels, func(c stream.Channel) bool { return c.ID == ch.ID }) {
		return
	}
	m.channels = append(m.channels, ch)
}

// Append adds a message at the end of its channel's stream.
func (m *MemoryStream) Append(msg stream.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.ChannelID] = append(m.messages[msg.ChannelID], msg)
}

func (m *MemoryStream) Channels(ctx context.Context) ([]stream.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]stream.Channel, len(m.channels))
	copy(snapshot, m.channels)
	return snapshot, nil
}

func (m *MemoryStream) Messages(ctx context.Context, channelID string) ([]stream.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.messages[channelID]
	snapshot := make([]stream.Message, len(msgs))
	copy(snapshot, msgs)
	return snapshot, nil
}

package cursor

import "context"

// Store persists per-channel read cursors for the local user. Cursors are
// strictly process-local: they are never replicated to other peers or
// devices. A cursor is a non-negative unix-millisecond timestamp; an absent
// key reads as 0.
//
// Implementations store the value as a decimal string under a fixed key
// prefix concatenated with the channel ID.
type Store interface {
	// Get returns the cursor for a channel, or 0 if none was saved.
	Get(ctx context.Context, channelID string) (int64, error)

	// Set overwrites the cursor for a channel.
	Set(ctx context.Context, channelID string, ts int64) error
}

// KeyPrefix is the fixed prefix for persisted cursor keys.
const KeyPrefix = "readcursor:"

package presence

import (
	"context"
	"time"
)

// Entry represents one user's ephemeral typing signal inside a channel's
// shared replicated list. Entries are self-managed: only the peer that
// appended an entry ever updates or removes it.
type Entry struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	LastTypedAt time.Time `json:"last_typed_at"`
}

// FieldLastTypedAt is the only entry field mutated after creation.
const FieldLastTypedAt = "last_typed_at"

// ApplyField mutates the named field. Unknown fields and mismatched value
// types are ignored so snapshots from newer peers stay readable.
func (e *Entry) ApplyField(field string, value any) {
	if field == FieldLastTypedAt {
		if ts, ok := value.(time.Time); ok {
			e.LastTypedAt = ts
		}
	}
}

// List is the contract for the replicated ordered container holding typing
// entries. Mutations propagate to other peers eventually and unordered; no
// ordering between writers is assumed beyond "a local write is visible to
// the next local read". Implementations return an error when the container
// was deleted or the channel invalidated concurrently; callers treat every
// mutation as best-effort.
type List interface {
	// Exists reports whether the channel's container has been created.
	Exists(ctx context.Context, channelID string) (bool, error)

	// Create lazily creates the channel's container. Creating an existing
	// container is a no-op.
	Create(ctx context.Context, channelID string) error

	// Get returns a snapshot of the container in container order.
	Get(ctx context.Context, channelID string) ([]Entry, error)

	// Append adds an entry at the end of the container.
	Append(ctx context.Context, channelID string, e Entry) error

	// SetField updates a single field of the entry at index.
	SetField(ctx context.Context, channelID string, index int, field string, value any) error

	// RemoveAt removes the entry at index.
	RemoveAt(ctx context.Context, channelID string, index int) error
}

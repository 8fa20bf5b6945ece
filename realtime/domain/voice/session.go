package voice

import "context"

// Status is the controller-side lifecycle state of the voice session.
// It uniquely determines whether an underlying peer session is expected
// to exist.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusJoining   Status = "joining"
	StatusConnected Status = "connected"
)

// Peer describes one remote participant of a voice session.
type Peer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PeerSession is the opaque signaling/media session the controller drives.
// The controller only decides WHEN to invoke these; connection setup, audio
// capture and media transport live behind this interface.
type PeerSession interface {
	// Join initiates a connection attempt against the given channel.
	Join(ctx context.Context, channelID string) error

	// Leave tears down the current connection. Safe to call repeatedly.
	Leave(ctx context.Context) error

	// ToggleMute flips the local mute state.
	ToggleMute(ctx context.Context) error

	// IsConnected reports whether the session has an established connection.
	IsConnected() bool

	// Peers returns the remote participants in session order.
	Peers() []Peer
}

package voicelink

import (
	"context"
	"sync"
	"time"

	"github.com/skylark-im/skylark/realtime/domain/voice"
)

// Loopback implements voice.PeerSession without a real media transport.
// Join reports success after a short simulated handshake via OnConnected,
// which the composition layer routes to the session controller. It backs
// local runs and demos; a real deployment swaps in a transport-backed
// session behind the same interface.
type Loopback struct {
	// OnConnected fires once the simulated handshake completes. Set it
	// before the first Join.
	OnConnected func()

	handshake time.Duration

	mu        sync.Mutex
	connected bool
	target    string
	muted     bool
	gen       int
}

func NewLoopback(handshake time.Duration) *Loopback {
	return &Loopback{handshake: handshake}
}

func (l *Loopback) Join(ctx context.Context, channelID string) error {
	l.mu.Lock()
	l.target = channelID
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	time.AfterFunc(l.handshake, func() {
		l.mu.Lock()
		// A Leave or a newer Join invalidates this handshake.
		if gen != l.gen {
			l.mu.Unlock()
			return
		}
		l.connected = true
		cb := l.OnConnected
		l.mu.Unlock()

		if cb != nil {
			cb()
		}
	})
	return nil
}

func (l *Loopback) Leave(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.connected = false
	l.target = ""
	return nil
}

func (l *Loopback) ToggleMute(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.muted = !l.muted
	return nil
}

func (l *Loopback) IsConnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

// Peers returns no remote participants; the loopback has none.
func (l *Loopback) Peers() []voice.Peer {
	return nil
}

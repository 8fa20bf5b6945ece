package application

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/skylark-im/skylark/core/config"
	"github.com/skylark-im/skylark/realtime/domain/voice"
)

// VoiceSessionController drives the join/leave lifecycle of one voice
// session. Valid transitions:
//
//	Idle -> Joining            (Join)
//	Joining -> Connected       (HandleConnected)
//	Joining -> Idle            (safety timeout)
//	Connected -> Idle          (Leave)
//	Connected -> Joining       (Join on a different channel)
//
// Join mutates status synchronously but defers the underlying join call by
// a short settle delay, so the peer session observes the new target before
// connecting. The Joining guard makes any burst of Join calls inside that
// delay collapse into exactly one underlying join.
type VoiceSessionController struct {
	session voice.PeerSession

	settleDelay   time.Duration
	safetyTimeout time.Duration

	mu          sync.Mutex
	status      voice.Status
	target      string
	muted       bool
	joinGen     int
	settleTimer *time.Timer
	safetyTimer *time.Timer

	// OnWarning receives recoverable problems (hung join attempts). When
	// nil, warnings go to the log.
	OnWarning func(msg string)
}

func NewVoiceSessionController(session voice.PeerSession, timing config.TimingConfig) *VoiceSessionController {
	return &VoiceSessionController{
		session:       session,
		settleDelay:   timing.JoinSettleDelay,
		safetyTimeout: timing.JoinSafetyTimeout,
		status:        voice.StatusIdle,
	}
}

// Join requests a connection to the given voice channel.
// No-op while a join is already in flight, or when already connected to the
// same channel. When connected to a different channel, the underlying leave
// completes before the new join is initiated.
func (c *VoiceSessionController) Join(channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == voice.StatusJoining {
		return
	}
	if c.status == voice.StatusConnected && c.target == channelID {
		return
	}

	if c.status == voice.StatusConnected {
		if err := c.session.Leave(context.Background()); err != nil {
			logrus.WithError(err).Warnf("[Voice] Leave before channel switch failed for %s", c.target)
		}
	}

	c.status = voice.StatusJoining
	c.target = channelID
	c.joinGen++
	gen := c.joinGen

	c.stopTimersLocked()
	c.safetyTimer = time.AfterFunc(c.safetyTimeout, func() {
		c.onSafetyTimeout(gen)
	})
	c.settleTimer = time.AfterFunc(c.settleDelay, func() {
		c.onSettle(gen)
	})
}

// onSettle fires after the settle delay and performs the deferred
// underlying join, unless the attempt was cancelled or superseded.
func (c *VoiceSessionController) onSettle(gen int) {
	c.mu.Lock()
	if gen != c.joinGen || c.status != voice.StatusJoining {
		c.mu.Unlock()
		return
	}
	channelID := c.target
	c.mu.Unlock()

	if err := c.session.Join(context.Background(), channelID); err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.joinGen {
			return
		}
		if c.safetyTimer != nil {
			c.safetyTimer.Stop()
		}
		c.status = voice.StatusIdle
		c.target = ""
		c.warn("voice join failed: " + err.Error())
	}
}

// onSafetyTimeout resets a join that never reported connected. The attempt
// is abandoned, not retried; the user simply retries.
func (c *VoiceSessionController) onSafetyTimeout(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.joinGen || c.status != voice.StatusJoining {
		return
	}
	c.status = voice.StatusIdle
	c.target = ""
	c.warn("voice join timed out, try again")
}

// HandleConnected is invoked when the underlying session reports an
// established connection. It cancels the safety timer and settles the
// state machine on Connected.
func (c *VoiceSessionController) HandleConnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != voice.StatusJoining {
		return
	}
	c.status = voice.StatusConnected
	c.stopTimersLocked()
}

// Leave tears down the session. While Idle it is a safe no-op and the
// underlying leave is not invoked.
func (c *VoiceSessionController) Leave() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == voice.StatusIdle {
		return
	}

	c.joinGen++
	c.stopTimersLocked()
	if err := c.session.Leave(context.Background()); err != nil {
		logrus.WithError(err).Warn("[Voice] Underlying leave failed")
	}
	c.status = voice.StatusIdle
	c.target = ""
}

// ToggleMute flips the local mute state. It delegates to the underlying
// session and does not touch the state machine.
func (c *VoiceSessionController) ToggleMute() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.session.ToggleMute(context.Background()); err != nil {
		logrus.WithError(err).Warn("[Voice] Mute toggle failed")
		return
	}
	c.muted = !c.muted
}

// Status returns the current lifecycle state.
func (c *VoiceSessionController) Status() voice.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Target returns the channel the controller is joined to or joining.
func (c *VoiceSessionController) Target() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Muted returns the local mute state.
func (c *VoiceSessionController) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// Peers returns the remote participants reported by the underlying session.
func (c *VoiceSessionController) Peers() []voice.Peer {
	return c.session.Peers()
}

// Close cancels pending timers on component teardown. It does not leave
// the session; callers invoke Leave explicitly when that is wanted.
func (c *VoiceSessionController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joinGen++
	c.stopTimersLocked()
}

func (c *VoiceSessionController) stopTimersLocked() {
	if c.settleTimer != nil {
		c.settleTimer.Stop()
		c.settleTimer = nil
	}
	if c.safetyTimer != nil {
		c.safetyTimer.Stop()
		c.safetyTimer = nil
	}
}

func (c *VoiceSessionController) warn(msg string) {
	if c.OnWarning != nil {
		c.OnWarning(msg)
		return
	}
	logrus.Warnf("[Voice] %s", msg)
}

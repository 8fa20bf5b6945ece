package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/skylark-im/skylark/core/config"
	"github.com/skylark-im/skylark/realtime/domain/presence"
)

// PresenceSynchronizer broadcasts the local user's typing signal into a
// channel's shared replicated list and expires it after inactivity. One
// synchronizer exists per (channel, local user); it only ever mutates the
// entry it appended itself. Remote peers' stale entries are not deleted
// here — they are filtered out at read time by timestamp.
//
// Every mutation against the shared container is best-effort: failures are
// logged at debug level and absorbed, never surfaced to the caller.
type PresenceSynchronizer struct {
	list      presence.List
	channelID string
	localUser string

	typingTimeout time.Duration
	pollInterval  time.Duration

	mu        sync.Mutex
	entryID   string
	expiry    *time.Timer
	expiryGen int
	pollStop  chan struct{}
	closed    bool

	now func() time.Time
}

func NewPresenceSynchronizer(list presence.List, channelID, localUser string, timing config.TimingConfig) *PresenceSynchronizer {
	return &PresenceSynchronizer{
		list:          list,
		channelID:     channelID,
		localUser:     localUser,
		typingTimeout: timing.TypingTimeout,
		pollInterval:  timing.PresencePoll,
		now:           time.Now,
	}
}

// NotifyTyping records a keystroke. The first call of a burst appends a new
// entry to the shared container (lazily creating the container); subsequent
// calls refresh the entry's timestamp. Each call restarts the local expiry
// timer, which removes the entry once the user stops typing.
func (p *PresenceSynchronizer) NotifyTyping() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	ctx := context.Background()
	now := p.now()

	exists, err := p.list.Exists(ctx, p.channelID)
	if err != nil {
		logrus.WithError(err).Debugf("[Presence] Container check failed for %s", p.channelID)
		return
	}
	if !exists {
		if err := p.list.Create(ctx, p.channelID); err != nil {
			logrus.WithError(err).Debugf("[Presence] Container create failed for %s", p.channelID)
			return
		}
	}

	if !p.refreshOwnEntry(ctx, now) {
		e := presence.Entry{
			ID:          uuid.NewString(),
			Owner:       p.localUser,
			LastTypedAt: now,
		}
		if err := p.list.Append(ctx, p.channelID, e); err != nil {
			logrus.WithError(err).Debugf("[Presence] Append failed for %s", p.channelID)
			return
		}
		p.entryID = e.ID
	}

	p.restartExpiryLocked()
}

// refreshOwnEntry updates the live entry's timestamp. Returns false when no
// live entry remains and a new one must be appended. Caller holds the lock.
func (p *PresenceSynchronizer) refreshOwnEntry(ctx context.Context, now time.Time) bool {
	if p.entryID == "" {
		return false
	}

	idx, ok := p.ownEntryIndex(ctx)
	if !ok {
		// Entry vanished (container recreated or pruned remotely).
		p.entryID = ""
		return false
	}

	if err := p.list.SetField(ctx, p.channelID, idx, presence.FieldLastTypedAt, now); err != nil {
		logrus.WithError(err).Debugf("[Presence] Timestamp refresh failed for %s", p.channelID)
	}
	return true
}

// ownEntryIndex locates the local entry in the current snapshot. Indices
// are only stable within one snapshot, so they are resolved fresh before
// every positional mutation.
func (p *PresenceSynchronizer) ownEntryIndex(ctx context.Context) (int, bool) {
	entries, err := p.list.Get(ctx, p.channelID)
	if err != nil {
		return 0, false
	}
	for i, e := range entries {
		if e.ID == p.entryID {
			return i, true
		}
	}
	return 0, false
}

// restartExpiryLocked (re)arms the inactivity timer. A generation counter
// keeps a timer that already fired but is waiting on the mutex from
// removing a freshly refreshed entry.
func (p *PresenceSynchronizer) restartExpiryLocked() {
	if p.expiry != nil {
		p.expiry.Stop()
	}
	p.expiryGen++
	gen := p.expiryGen
	p.expiry = time.AfterFunc(p.typingTimeout, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.closed || gen != p.expiryGen {
			return
		}
		p.removeOwnEntryLocked(context.Background())
	})
}

func (p *PresenceSynchronizer) removeOwnEntryLocked(ctx context.Context) {
	if p.entryID == "" {
		return
	}
	if idx, ok := p.ownEntryIndex(ctx); ok {
		if err := p.list.RemoveAt(ctx, p.channelID, idx); err != nil {
			logrus.WithError(err).Debugf("[Presence] Entry removal failed for %s", p.channelID)
		}
	}
	p.entryID = ""
}

// ActiveTypers returns the distinct names of users whose entries are fresh
// at the given instant, excluding the local user, in container order. It is
// a pure function over the current container snapshot; the replication
// layer pushes nothing, so callers poll.
func (p *PresenceSynchronizer) ActiveTypers(now time.Time) []string {
	entries, err := p.list.Get(context.Background(), p.channelID)
	if err != nil {
		return nil
	}

	fresh := lo.Filter(entries, func(e presence.Entry, _ int) bool {
		return e.Owner != p.localUser && now.Sub(e.LastTypedAt) < p.typingTimeout
	})
	return lo.Uniq(lo.Map(fresh, func(e presence.Entry, _ int) string {
		return e.Owner
	}))
}

// StartPolling invokes onTick with the current active typers at the
// configured interval until Close is called. Starting twice is a no-op.
func (p *PresenceSynchronizer) StartPolling(onTick func(typers []string)) {
	p.mu.Lock()
	if p.closed || p.pollStop != nil {
		p.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	p.pollStop = stop
	p.mu.Unlock()

	go func() {
		ticker := time.NewTicker(p.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				onTick(p.ActiveTypers(p.now()))
			}
		}
	}()
}

// Close tears the synchronizer down on channel switch or unmount: the poll
// and expiry timers are cancelled and the local entry is synchronously
// removed from the shared container, so no ghost indicator survives
// navigation.
func (p *PresenceSynchronizer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	if p.pollStop != nil {
		close(p.pollStop)
		p.pollStop = nil
	}
	if p.expiry != nil {
		p.expiry.Stop()
		p.expiry = nil
	}
	p.removeOwnEntryLocked(context.Background())
}

package application

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/skylark-im/skylark/core/config"
	"github.com/skylark-im/skylark/infrastructure/notify"
	"github.com/skylark-im/skylark/realtime/domain/cursor"
	"github.com/skylark-im/skylark/realtime/domain/stream"
)

// notifyBodyLimit caps the message excerpt carried in a notification body.
const notifyBodyLimit = 100

// UnreadTracker maintains per-channel read cursors and decides when to fire
// desktop notifications. Cursors are monotone, local-only timestamps; a
// persisted-store read failure falls back to cursor 0 (everything unread)
// and write failures are dropped, so the tracker never propagates storage
// errors.
type UnreadTracker struct {
	cursors  cursor.Store
	stream   stream.Reader
	notifier notify.Dispatcher

	localUser   string
	autoDismiss time.Duration

	// IsFocused reports whether the host UI is currently visible/focused.
	// Notifications are suppressed while it returns true. A nil callback
	// counts as unfocused.
	IsFocused func() bool

	mu            sync.Mutex
	active        string
	lastCounts    map[string]int
	permAsked     bool
	permGranted   bool
	dismissTimers map[string]*time.Timer
	closed        bool
}

func NewUnreadTracker(cursors cursor.Store, reader stream.Reader, notifier notify.Dispatcher, localUser string, timing config.TimingConfig) *UnreadTracker {
	return &UnreadTracker{
		cursors:       cursors,
		stream:        reader,
		notifier:      notifier,
		localUser:     localUser,
		autoDismiss:   timing.NotifyAutoDismiss,
		lastCounts:    make(map[string]int),
		dismissTimers: make(map[string]*time.Timer),
	}
}

// SetActiveChannel marks the channel the user is currently viewing. The
// next recomputation pass keeps its cursor pinned to the latest message:
// viewing implies reading.
func (t *UnreadTracker) SetActiveChannel(channelID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = channelID
}

// MarkAsRead advances the channel's cursor to its most recent message.
// No-op when the channel has no messages.
func (t *UnreadTracker) MarkAsRead(ctx context.Context, channelID string) {
	msgs, err := t.stream.Messages(ctx, channelID)
	if err != nil || len(msgs) == 0 {
		return
	}
	t.advanceCursor(ctx, channelID, msgs[len(msgs)-1].CreatedAt.UnixMilli())
}

// advanceCursor writes the cursor, keeping it monotone. Write failures are
// best-effort persistence and are dropped.
func (t *UnreadTracker) advanceCursor(ctx context.Context, channelID string, ts int64) {
	current := t.cursorFor(ctx, channelID)
	if ts <= current {
		return
	}
	if err := t.cursors.Set(ctx, channelID, ts); err != nil {
		logrus.WithError(err).Debugf("[Unread] Cursor write failed for %s", channelID)
	}
}

// cursorFor reads a channel's cursor; a failed read counts as 0, which
// over-counts unread rather than losing messages.
func (t *UnreadTracker) cursorFor(ctx context.Context, channelID string) int64 {
	ts, err := t.cursors.Get(ctx, channelID)
	if err != nil {
		logrus.WithError(err).Debugf("[Unread] Cursor read failed for %s", channelID)
		return 0
	}
	return ts
}

// UnreadCount returns how many messages in the channel are newer than the
// cursor and not the local user's own. Voice channels never contribute.
func (t *UnreadTracker) UnreadCount(ctx context.Context, channelID string) int {
	channels, err := t.stream.Channels(ctx)
	if err != nil {
		return 0
	}
	ch, found := lo.Find(channels, func(c stream.Channel) bool { return c.ID == channelID })
	if !found || ch.Kind != stream.KindText {
		return 0
	}

	msgs, err := t.stream.Messages(ctx, channelID)
	if err != nil {
		return 0
	}

	cur := t.cursorFor(ctx, channelID)
	return lo.CountBy(msgs, func(m stream.Message) bool {
		return m.CreatedAt.UnixMilli() > cur && m.Sender != t.localUser
	})
}

// Recompute runs one pass over all channels. It pins the active channel's
// cursor to its latest message and fires a notification for every channel
// that grew since the previous pass, provided the channel is not active,
// the newest message is not the local user's, and the channel had been
// observed non-empty before. That last guard — first observation never
// notifies — keeps a fresh client from alerting on an entire backlog.
func (t *UnreadTracker) Recompute(ctx context.Context) {
	channels, err := t.stream.Channels(ctx)
	if err != nil {
		logrus.WithError(err).Debug("[Unread] Channel listing failed")
		return
	}

	for _, ch := range channels {
		msgs, err := t.stream.Messages(ctx, ch.ID)
		if err != nil {
			continue
		}
		count := len(msgs)

		t.mu.Lock()
		prev, seen := t.lastCounts[ch.ID]
		isActive := ch.ID == t.active
		t.lastCounts[ch.ID] = count
		t.mu.Unlock()

		if isActive && count > 0 {
			t.advanceCursor(ctx, ch.ID, msgs[count-1].CreatedAt.UnixMilli())
			continue
		}

		if !seen || prev == 0 || count <= prev || ch.Kind != stream.KindText {
			continue
		}
		latest := msgs[count-1]
		if latest.Sender == t.localUser {
			continue
		}
		t.maybeNotify(ctx, ch, latest)
	}
}

func (t *UnreadTracker) maybeNotify(ctx context.Context, ch stream.Channel, msg stream.Message) {
	if t.IsFocused != nil && t.IsFocused() {
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	// Permission is requested once per process lifetime; a decline is
	// never re-prompted.
	if !t.permAsked {
		t.permAsked = true
		t.permGranted = t.notifier.RequestPermission(ctx)
	}
	granted := t.permGranted
	t.mu.Unlock()

	if !granted {
		return
	}

	tag := "channel-" + ch.ID
	n := notify.Notification{
		Title:  "#" + ch.Name,
		Body:   msg.Sender + ": " + truncate(msg.Content, notifyBodyLimit),
		Tag:    tag,
		Silent: false,
	}
	if err := t.notifier.Dispatch(ctx, n); err != nil {
		logrus.WithError(err).Debugf("[Unread] Notification dispatch failed for %s", ch.ID)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.dismissTimers[tag]; ok {
		prev.Stop()
	}
	t.dismissTimers[tag] = time.AfterFunc(t.autoDismiss, func() {
		_ = t.notifier.Dismiss(context.Background(), tag)
		t.mu.Lock()
		delete(t.dismissTimers, tag)
		t.mu.Unlock()
	})
}

// Close cancels pending auto-dismiss timers on teardown.
func (t *UnreadTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for tag, timer := range t.dismissTimers {
		timer.Stop()
		delete(t.dismissTimers, tag)
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

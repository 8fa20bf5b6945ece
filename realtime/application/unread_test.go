package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylark-im/skylark/core/config"
	"github.com/skylark-im/skylark/infrastructure/notify"
	"github.com/skylark-im/skylark/realtime/domain/stream"
	"github.com/skylark-im/skylark/realtime/repository"
)

func unreadTiming() config.TimingConfig {
	t := config.DefaultTiming()
	t.NotifyAutoDismiss = 40 * time.Millisecond
	return t
}

func newUnreadFixture(localUser string) (*UnreadTracker, *repository.MemoryStream, *repository.MemoryCursorStore, *notify.MemoryDispatcher) {
	msgs := repository.NewMemoryStream()
	cursors := repository.NewMemoryCursorStore()
	dispatcher := notify.NewMemoryDispatcher()
	tracker := NewUnreadTracker(cursors, msgs, dispatcher, localUser, unreadTiming())
	tracker.IsFocused = func() bool { return false }
	return tracker, msgs, cursors, dispatcher
}

func msgAt(channelID, sender, content string, tsMillis int64) stream.Message {
	return stream.Message{
		ID:        sender + "-" + content,
		ChannelID: channelID,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.UnixMilli(tsMillis),
	}
}

func Test_UnreadCount_Excludes_Own_And_Already_Read(t *testing.T) {
	tracker, msgs, cursors, _ := newUnreadFixture("Alice")
	defer tracker.Close()
	ctx := context.Background()

	msgs.AddChannel(stream.Channel{ID: "general", Name: "general", Kind: stream.KindText})
	msgs.Append(msgAt("general", "Bob", "one", 500))
	msgs.Append(msgAt("general", "Bob", "two", 1500))
	msgs.Append(msgAt("general", "Alice", "three", 2000))
	msgs.Append(msgAt("general", "Charlie", "four", 2500))
	require.NoError(t, cursors.Set(ctx, "general", 1000))

	// 500 is behind the cursor, 2000 is Alice's own: 1500 and 2500 remain.
	assert.Equal(t, 2, tracker.UnreadCount(ctx, "general"))
}

func Test_Voice_Channels_Never_Contribute_Unread(t *testing.T) {
	tracker, msgs, _, _ := newUnreadFixture("Alice")
	defer tracker.Close()

	msgs.AddChannel(stream.Channel{ID: "lounge", Name: "lounge", Kind: stream.KindVoice})
	msgs.Append(msgAt("lounge", "Bob", "hi", 100))

	assert.Equal(t, 0, tracker.UnreadCount(context.Background(), "lounge"))
}

func Test_MarkAsRead_Advances_To_Latest(t *testing.T) {
	tracker, msgs, cursors, _ := newUnreadFixture("Alice")
	defer tracker.Close()
	ctx := context.Background()

	msgs.AddChannel(stream.Channel{ID: "general", Name: "general", Kind: stream.KindText})
	msgs.Append(msgAt("general", "Bob", "one", 500))
	msgs.Append(msgAt("general", "Bob", "two", 1500))

	require.Equal(t, 2, tracker.UnreadCount(ctx, "general"))
	tracker.MarkAsRead(ctx, "general")
	assert.Equal(t, 0, tracker.UnreadCount(ctx, "general"))

	ts, err := cursors.Get(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), ts)
}

func Test_MarkAsRead_On_Empty_Channel_Is_NoOp(t *testing.T) {
	tracker, msgs, cursors, _ := newUnreadFixture("Alice")
	defer tracker.Close()
	ctx := context.Background()

	msgs.AddChannel(stream.Channel{ID: "empty", Name: "empty", Kind: stream.KindText})
	tracker.MarkAsRead(ctx, "empty")

	ts, err := cursors.Get(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts)
}

func Test_Cursor_Never_Moves_Backwards(t *testing.T) {
	tracker, msgs, cursors, _ := newUnreadFixture("Alice")
	defer tracker.Close()
	ctx := context.Background()

	msgs.AddChannel(stream.Channel{ID: "general", Name: "general", Kind: stream.KindText})
	msgs.Append(msgAt("general", "Bob", "one", 500))
	require.NoError(t, cursors.Set(ctx, "general", 9000))

	tracker.MarkAsRead(ctx, "general")

	ts, err := cursors.Get(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, int64(9000), ts, "cursors are monotonically non-decreasing")
}

func Test_Cursor_Read_Failure_Treats_All_As_Unread(t *testing.T) {
	msgs := repository.NewMemoryStream()
	dispatcher := notify.NewMemoryDispatcher()
	tracker := NewUnreadTracker(failingCursorStore{}, msgs, dispatcher, "Alice", unreadTiming())
	defer tracker.Close()

	msgs.AddChannel(stream.Channel{ID: "general", Name: "general", Kind: stream.KindText})
	msgs.Append(msgAt("general", "Bob", "one", 500))

	assert.Equal(t, 1, tracker.UnreadCount(context.Background(), "general"))
}

type failingCursorStore struct{}

func (failingCursorStore) Get(ctx context.Context, channelID string) (int64, error) {
	return 0, assert.AnError
}

func (failingCursorStore) Set(ctx context.Context, channelID string, ts int64) error {
	return assert.AnError
}

func Test_First_Observation_Never_Notifies(t *testing.T) {
	tracker, msgs, _, dispatcher := newUnreadFixture("Alice")
	defer tracker.Close()
	ctx := context.Background()

	msgs.AddChannel(stream.Channel{ID: "general", Name: "general", Kind: stream.KindText})
	msgs.Append(msgAt("general", "Bob", "backlog-1", 100))
	msgs.Append(msgAt("general", "Bob", "backlog-2", 200))

	tracker.Recompute(ctx)
	assert.Empty(t, dispatcher.Dispatched(), "joining a channel with history must stay silent")

	msgs.Append(msgAt("general", "Bob", "fresh", 300))
	tracker.Recompute(ctx)

	dispatched := dispatcher.Dispatched()
	require.Len(t, dispatched, 1)
	assert.Equal(t, "#general", dispatched[0].Title)
	assert.Equal(t, "Bob: fresh", dispatched[0].Body)
	assert.Equal(t, "channel-general", dispatched[0].Tag)
	assert.False(t, dispatched[0].Silent)
}

func Test_Channel_Observed_Empty_Does_Not_Notify_On_First_Message(t *testing.T) {
	tracker, msgs, _, dispatcher := newUnreadFixture("Alice")
	defer tracker.Close()
	ctx := context.Background()

	msgs.AddChannel(stream.Channel{ID: "general", Name: "general", Kind: stream.KindText})
	tracker.Recompute(ctx) // observed with zero messages

	msgs.Append(msgAt("general", "Bob", "hello", 100))
	tracker.Recompute(ctx)

	assert.Empty(t, dispatcher.Dispatched())
}

func Test_Active_Channel_Advances_Cursor_Instead_Of_Notifying(t *testing.T) {
	tracker, msgs, cursors, dispatcher := newUnreadFixture("Alice")
	defer tracker.Close()
	ctx := context.Background()

	msgs.AddChannel(stream.Channel{ID: "general", Name: "general", Kind: stream.KindText})
	msgs.Append(msgAt("general", "Bob", "one", 100))
	tracker.SetActiveChannel("general")
	tracker.Recompute(ctx)

	msgs.Append(msgAt("general", "Bob", "two", 200))
	tracker.Recompute(ctx)

	assert.Empty(t, dispatcher.Dispatched(), "viewing implies reading")
	ts, err := cursors.Get(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, int64(200), ts)
	assert.Equal(t, 0, tracker.UnreadCount(ctx, "general"))
}

func Test_Own_Message_Growth_Does_Not_Notify(t *testing.T) {
	tracker, msgs, _, dispatcher := newUnreadFixture("Alice")
	defer tracker.Close()
	ctx := context.Background()

	msgs.AddChannel(stream.Channel{ID: "general", Name: "general", Kind: stream.KindText})
	msgs.Append(msgAt("general", "Bob", "one", 100))
	tracker.Recompute(ctx)

	msgs.Append(msgAt("general", "Alice", "mine", 200))
	tracker.Recompute(ctx)

	assert.Empty(t, dispatcher.Dispatched())
}

func Test_Focused_Host_Suppresses_Notification(t *testing.T) {
	tracker, msgs, _, dispatcher := newUnreadFixture("Alice")
	defer tracker.Close()
	tracker.IsFocused = func() bool { return true }
	ctx := context.Background()

	msgs.AddChannel(stream.Channel{ID: "general", Name: "general", Kind: stream.KindText})
	msgs.Append(msgAt("general", "Bob", "one", 100))
	tracker.Recompute(ctx)

	msgs.Append(msgAt("general", "Bob", "two", 200))
	tracker.Recompute(ctx)

	assert.Empty(t, dispatcher.Dispatched())
}

func Test_Declined_Permission_Is_Asked_Only_Once(t *testing.T) {
	tracker, msgs, _, dispatcher := newUnreadFixture("Alice")
	defer tracker.Close()
	dispatcher.SetGranted(false)
	ctx := context.Background()

	msgs.AddChannel(stream.Channel{ID: "general", Name: "general", Kind: stream.KindText})
	msgs.Append(msgAt("general", "Bob", "one", 100))
	tracker.Recompute(ctx)

	for i := int64(0); i < 3; i++ {
		msgs.Append(msgAt("general", "Bob", "more", 200+i))
		tracker.Recompute(ctx)
	}

	assert.Empty(t, dispatcher.Dispatched())
	assert.Equal(t, 1, dispatcher.PermissionRequests(), "a decline is never re-prompted")
}

func Test_Notification_Body_Truncated_To_100_Chars(t *testing.T) {
	tracker, msgs, _, dispatcher := newUnreadFixture("Alice")
	defer tracker.Close()
	ctx := context.Background()

	long := strings.Repeat("x", 250)
	msgs.AddChannel(stream.Channel{ID: "general", Name: "general", Kind: stream.KindText})
	msgs.Append(msgAt("general", "Bob", "seed", 100))
	tracker.Recompute(ctx)

	msgs.Append(msgAt("general", "Bob", long, 200))
	tracker.Recompute(ctx)

	dispatched := dispatcher.Dispatched()
	require.Len(t, dispatched, 1)
	assert.Equal(t, "Bob: "+strings.Repeat("x", 100), dispatched[0].Body)
}

func Test_Notification_Auto_Dismissed(t *testing.T) {
	tracker, msgs, _, dispatcher := newUnreadFixture("Alice")
	defer tracker.Close()
	ctx := context.Background()

	msgs.AddChannel(stream.Channel{ID: "general", Name: "general", Kind: stream.KindText})
	msgs.Append(msgAt("general", "Bob", "one", 100))
	tracker.Recompute(ctx)

	msgs.Append(msgAt("general", "Bob", "two", 200))
	tracker.Recompute(ctx)

	require.True(t, dispatcher.Visible("channel-general"))
	time.Sleep(100 * time.Millisecond)
	assert.False(t, dispatcher.Visible("channel-general"), "auto-dismiss after the configured delay")
}

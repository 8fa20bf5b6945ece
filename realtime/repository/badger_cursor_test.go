package repository

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestBadger(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions(t.TempDir()).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_BadgerCursor_Missing_Channel_Reads_Zero(t *testing.T) {
	store := NewBadgerCursorStore(openTestBadger(t))

	ts, err := store.Get(context.Background(), "never-read")
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts)
}

func Test_BadgerCursor_Set_Then_Get_Roundtrip(t *testing.T) {
	store := NewBadgerCursorStore(openTestBadger(t))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "general", 1500))

	ts, err := store.Get(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), ts)
}

func Test_BadgerCursor_Channels_Are_Isolated(t *testing.T) {
	store := NewBadgerCursorStore(openTestBadger(t))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "general", 100))
	require.NoError(t, store.Set(ctx, "random", 900))

	general, err := store.Get(ctx, "general")
	require.NoError(t, err)
	random, err := store.Get(ctx, "random")
	require.NoError(t, err)

	assert.Equal(t, int64(100), general)
	assert.Equal(t, int64(900), random)
}

func Test_BadgerCursor_Overwrite_Keeps_Latest(t *testing.T) {
	store := NewBadgerCursorStore(openTestBadger(t))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "general", 100))
	require.NoError(t, store.Set(ctx, "general", 2500))

	ts, err := store.Get(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), ts)
}

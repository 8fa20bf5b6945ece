package repository

import (
	"context"
	"strconv"
	"sync"

	"github.com/skylark-im/skylark/realtime/domain/cursor"
)

// MemoryCursorStore implements cursor.Store in memory. Values are kept as
// decimal strings to match the persisted layout exactly.
type MemoryCursorStore struct {
	mu    sync.Mutex
	store map[string]string
}

func NewMemoryCursorStore() *MemoryCursorStore {
	return &MemoryCursorStore{
		store: make(map[string]string),
	}
}

func (m *MemoryCursorStore) Get(ctx context.Context, channelID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.store[cursor.KeyPrefix+channelID]
	if !ok {
		return 0, nil
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return ts, nil
}

func (m *MemoryCursorStore) Set(ctx context.Context, channelID string, ts int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[cursor.KeyPrefix+channelID] = strconv.FormatInt(ts, 10)
	return nil
}

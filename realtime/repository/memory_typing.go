package repository

import (
	"context"
	"sync"

	"github.com/skylark-im/skylark/realtime/domain/presence"
)

// MemoryTypingList implements presence.List in memory. It backs
// single-peer runs and tests; multi-peer deployments use the Valkey
// implementation.
type MemoryTypingList struct {
	mu    sync.Mutex
	lists map[string][]presence.Entry
}

func NewMemoryTypingList() *MemoryTypingList {
	return &MemoryTypingList{
		lists: make(map[string][]presence.Entry),
	}
}

func (m *MemoryTypingList) Exists(ctx context.Context, channelID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.lists[channelID]
	return ok, nil
}

func (m *MemoryTypingList) Create(ctx context.Context, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lists[channelID]; !ok {
		m.lists[channelID] = []presence.Entry{}
	}
	return nil
}

func (m *MemoryTypingList) Get(ctx context.Context, channelID string) ([]presence.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list, ok := m.lists[channelID]
	if !ok {
		return nil, ErrContainerMissing
	}
	snapshot := make([]presence.Entry, len(list))
	copy(snapshot, list)
	return snapshot, nil
}

func (m *MemoryTypingList) Append(ctx context.Context, channelID string, e presence.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list, ok := m.lists[channelID]
	if !ok {
		return ErrContainerMissing
	}
	m.lists[channelID] = append(list, e)
	return nil
}

func (m *MemoryTypingList) SetField(ctx context.Context, channelID string, index int, field string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list, ok := m.lists[channelID]
	if !ok {
		return ErrContainerMissing
	}
	if index < 0 || index >= len(list) {
		return ErrIndexOutOfRange
	}
	list[index].ApplyField(field, value)
	return nil
}

func (m *MemoryTypingList) RemoveAt(ctx context.Context, channelID string, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list, ok := m.lists[channelID]
	if !ok {
		return ErrContainerMissing
	}
	if index < 0 || index >= len(list) {
		return ErrIndexOutOfRange
	}
	m.lists[channelID] = append(list[:index], list[index+1:]...)
	return nil
}

// Drop deletes a channel's container outright, simulating a concurrent
// deletion by the replication layer.
func (m *MemoryTypingList) Drop(channelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lists, channelID)
}

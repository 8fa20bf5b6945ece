package notify

import (
	"context"
	"sync"
)

// MemoryDispatcher records notifications instead of showing them. It backs
// tests and headless runs.
type MemoryDispatcher struct {
	mu sync.Mutex

	// Granted controls the RequestPermission answer. Defaults to true.
	granted bool
	asked   int

	dispatched []Notification
	visible    map[string]Notification
	dismissed  []string
}

func NewMemoryDispatcher() *MemoryDispatcher {
	return &MemoryDispatcher{
		granted: true,
		visible: make(map[string]Notification),
	}
}

// SetGranted fixes the permission answer for subsequent requests.
func (m *MemoryDispatcher) SetGranted(granted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.granted = granted
}

func (m *MemoryDispatcher) RequestPermission(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asked++
	return m.granted
}

// PermissionRequests returns how often RequestPermission was called.
func (m *MemoryDispatcher) PermissionRequests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.asked
}

func (m *MemoryDispatcher) Dispatch(ctx context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatched = append(m.dispatched, n)
	m.visible[n.Tag] = n
	return nil
}

func (m *MemoryDispatcher) Dismiss(ctx context.Context, tag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.visible[tag]; ok {
		delete(m.visible, tag)
		m.dismissed = append(m.dismissed, tag)
	}
	return nil
}

// Dispatched returns every notification shown so far.
func (m *MemoryDispatcher) Dispatched() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, len(m.dispatched))
	copy(out, m.dispatched)
	return out
}

// Visible reports whether a notification with the tag is still showing.
func (m *MemoryDispatcher) Visible(tag string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.visible[tag]
	return ok
}

// Package notify abstracts the platform notification surface consumed by
// the unread tracker. The tracker decides when to fire and when to dismiss;
// the dispatcher only talks to the platform.
package notify

import "context"

// Notification is the payload handed to the platform.
type Notification struct {
	Title  string
	Body   string
	Icon   string
	// Tag de-duplicates notifications: a new notification with the same
	// tag replaces the previous one instead of stacking.
	Tag    string
	Silent bool
}

// Dispatcher delivers notifications to the platform.
type Dispatcher interface {
	// RequestPermission asks the platform once whether notifications may be
	// shown. Callers cache the answer for the process lifetime and never
	// re-prompt after a decline.
	RequestPermission(ctx context.Context) bool

	// Dispatch shows a notification.
	Dispatch(ctx context.Context, n Notification) error

	// Dismiss closes the notification carrying the given tag, if it is
	// still visible. Dismissing an unknown tag is a no-op.
	Dismiss(ctx context.Context, tag string) error
}

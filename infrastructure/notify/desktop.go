package notify

import (
	"context"

	"github.com/gen2brain/beeep"
	"github.com/sirupsen/logrus"
)

// DesktopDispatcher delivers notifications through the OS notification
// daemon via beeep.
type DesktopDispatcher struct{}

func NewDesktopDispatcher() *DesktopDispatcher {
	return &DesktopDispatcher{}
}

// RequestPermission always reports true: the desktop daemons beeep talks to
// gate visibility themselves (do-not-disturb, per-app settings).
func (d *DesktopDispatcher) RequestPermission(ctx context.Context) bool {
	return true
}

func (d *DesktopDispatcher) Dispatch(ctx context.Context, n Notification) error {
	if err := beeep.Notify(n.Title, n.Body, n.Icon); err != nil {
		logrus.WithError(err).Debug("[Notify] Desktop dispatch failed")
		return err
	}
	return nil
}

// Dismiss is a no-op: beeep exposes no handle to close a shown
// notification, so expiry is left to the daemon's own timeout.
func (d *DesktopDispatcher) Dismiss(ctx context.Context, tag string) error {
	return nil
}

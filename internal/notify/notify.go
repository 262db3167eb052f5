// Package notify posts desktop notifications through the freedesktop
// notification service.
package notify

import "time"

// Urgency is the freedesktop urgency hint.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification is one desktop notification.
type Notification struct {
	Summary string
	Body    string
	Image   string        // local image file shown with the notification
	Timeout time.Duration // 0 lets the server decide
	// Replaces is the id of a notification to update in place.
	Replaces  uint32
	Urgency   Urgency
	Transient bool // skip the notification history
}

// expireMillis converts Timeout to the wire value, -1 meaning server default.
func (n Notification) expireMillis() int32 {
	if n.Timeout <= 0 {
		return -1
	}
	return int32(n.Timeout / time.Millisecond)
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify shows n and returns its id, 0 when nothing was shown.
	Notify(n Notification) (uint32, error)
	Close(id uint32) error
}

// Disabled drops every notification.
type Disabled struct{}

// Notify implements Notifier.
func (Disabled) Notify(Notification) (uint32, error) { return 0, nil }

// Close implements Notifier.
func (Disabled) Close(uint32) error { return nil }

//go:build linux

package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	appName       = "Rollen"
	desktopEntry  = "rollen"
	musicCategory = "x-gnome.music"

	notificationsDest  = "org.freedesktop.Notifications"
	notificationsPath  = dbus.ObjectPath("/org/freedesktop/Notifications")
	notificationsIface = "org.freedesktop.Notifications"
)

type sessionNotifier struct {
	obj dbus.BusObject
}

// New connects to the session bus. Without a bus it returns Disabled.
func New() (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return Disabled{}, nil //nolint:nilerr // notifications are optional
	}
	return &sessionNotifier{obj: conn.Object(notificationsDest, notificationsPath)}, nil
}

func (s *sessionNotifier) Notify(n Notification) (uint32, error) {
	call := s.obj.Call(notificationsIface+".Notify", 0,
		appName, n.Replaces, "", n.Summary, n.Body,
		[]string{}, hints(n), n.expireMillis())
	if call.Err != nil {
		return 0, fmt.Errorf("notify: %w", call.Err)
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}
	return id, nil
}

func (s *sessionNotifier) Close(id uint32) error {
	if id == 0 {
		return nil
	}
	return s.obj.Call(notificationsIface+".CloseNotification", 0, id).Err
}

func hints(n Notification) map[string]dbus.Variant {
	h := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(n.Urgency)),
		"desktop-entry": dbus.MakeVariant(desktopEntry),
		"category":      dbus.MakeVariant(musicCategory),
	}
	if n.Image != "" {
		h["image-path"] = dbus.MakeVariant(n.Image)
	}
	if n.Transient {
		h["transient"] = dbus.MakeVariant(true)
	}
	return h
}

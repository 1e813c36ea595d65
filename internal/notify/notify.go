// Package notify sends desktop notifications over the session bus.
package notify

import (
	"context"
	"fmt"

	godbus "github.com/godbus/dbus/v5"
)

const (
	busName   = "org.freedesktop.Notifications"
	objPath   = "/org/freedesktop/Notifications"
	ifaceName = "org.freedesktop.Notifications"

	appName = "Wallpaper Themer"

	IconSuccess = "preferences-desktop-wallpaper"
	IconFailure = "dialog-error"
)

// Urgency hint levels.
const (
	UrgencyLow byte = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification is a single desktop notification.
type Notification struct {
	Summary string
	Body    string
	Icon    string
	Urgency byte
	// TimeoutMS of -1 leaves expiry to the server.
	TimeoutMS int32
}

// Success builds the notification sent after a theme was applied.
func Success(body string) Notification {
	return Notification{Summary: appName, Body: body, Icon: IconSuccess, Urgency: UrgencyNormal, TimeoutMS: -1}
}

// Failure builds the notification sent when theming failed.
func Failure(body string) Notification {
	return Notification{Summary: appName, Body: body, Icon: IconFailure, Urgency: UrgencyCritical, TimeoutMS: -1}
}

// Caller is the subset of godbus.BusObject the notifier uses.
type Caller interface {
	CallWithContext(ctx context.Context, method string, flags godbus.Flags, args ...any) *godbus.Call
}

type Notifier struct {
	obj Caller
}

// New connects to the session bus notification daemon.
func New() (*Notifier, error) {
	conn, err := godbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return NewWithCaller(conn.Object(busName, objPath)), nil
}

// NewWithCaller wraps an existing bus object.
func NewWithCaller(obj Caller) *Notifier {
	return &Notifier{obj: obj}
}

// Send shows n and returns the server-assigned id.
func (n *Notifier) Send(ctx context.Context, msg Notification) (uint32, error) {
	hints := map[string]godbus.Variant{
		"urgency": godbus.MakeVariant(msg.Urgency),
	}
	var id uint32
	call := n.obj.CallWithContext(ctx, ifaceName+".Notify", 0,
		appName, uint32(0), msg.Icon, msg.Summary, msg.Body, []string{}, hints, msg.TimeoutMS)
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("send notification: %w", err)
	}
	return id, nil
}

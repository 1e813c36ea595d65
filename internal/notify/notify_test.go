package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	godbus "github.com/godbus/dbus/v5"
)

type fakeCaller struct {
	method string
	args   []any
	err    error
}

func (f *fakeCaller) CallWithContext(_ context.Context, method string, _ godbus.Flags, args ...any) *godbus.Call {
	f.method = method
	f.args = args
	if f.err != nil {
		return &godbus.Call{Err: f.err}
	}
	return &godbus.Call{Body: []any{uint32(7)}}
}

func TestSend(t *testing.T) {
	fake := &fakeCaller{}
	n := NewWithCaller(fake)

	id, err := n.Send(context.Background(), Success("Theme applied from forest.png"))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if id != 7 {
		t.Fatalf("Send() id = %d, want 7", id)
	}
	if fake.method != "org.freedesktop.Notifications.Notify" {
		t.Fatalf("method = %q", fake.method)
	}
	if len(fake.args) != 8 {
		t.Fatalf("got %d args, want 8", len(fake.args))
	}
	if fake.args[0] != "Wallpaper Themer" || fake.args[2] != IconSuccess || fake.args[4] != "Theme applied from forest.png" {
		t.Fatalf("unexpected args: %v", fake.args)
	}
	hints := fake.args[6].(map[string]godbus.Variant)
	if hints["urgency"].Value() != UrgencyNormal {
		t.Fatalf("urgency = %v", hints["urgency"].Value())
	}
}

func TestSend_Error(t *testing.T) {
	n := NewWithCaller(&fakeCaller{err: errors.New("no daemon")})
	_, err := n.Send(context.Background(), Failure("Failed to apply theme"))
	if err == nil || !strings.Contains(err.Error(), "send notification: no daemon") {
		t.Fatalf("Send() error = %v", err)
	}
}

func TestFailure(t *testing.T) {
	msg := Failure("boom")
	if msg.Icon != IconFailure || msg.Urgency != UrgencyCritical || msg.Summary != "Wallpaper Themer" {
		t.Fatalf("Failure() = %+v", msg)
	}
}

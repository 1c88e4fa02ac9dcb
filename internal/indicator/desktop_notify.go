package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const (
	notifyDest  = "org.freedesktop.Notifications"
	notifyPath  = "/org/freedesktop/Notifications"
	notifyIface = "org.freedesktop.Notifications"
)

// desktopNotification is one org.freedesktop.Notifications.Notify call.
// A non-zero replaces updates that notification in place.
type desktopNotification struct {
	app       string
	replaces  uint32
	summary   string
	timeoutMS int
}

// send posts the notification and returns the id assigned by the server.
func (d desktopNotification) send(ctx context.Context) (uint32, error) {
	out, err := busctl(ctx, "Notify", "susssasa{sv}i",
		d.app,
		strconv.FormatUint(uint64(d.replaces), 10),
		"", // icon
		d.summary,
		"", // body
		"0",
		"0",
		strconv.Itoa(d.timeoutMS),
	)
	if err != nil {
		return 0, err
	}

	// busctl prints the reply as "u <id>".
	kind, value, ok := strings.Cut(out, " ")
	if !ok || kind != "u" {
		return 0, fmt.Errorf("busctl Notify: unexpected reply %q", out)
	}
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("busctl Notify: parse id %q: %w", value, err)
	}
	return uint32(id), nil
}

func closeDesktopNotification(ctx context.Context, id uint32) error {
	_, err := busctl(ctx, "CloseNotification", "u", strconv.FormatUint(uint64(id), 10))
	return err
}

// busctl calls method on the session notification service and returns its
// trimmed stdout.
func busctl(ctx context.Context, method, signature string, args ...string) (string, error) {
	argv := append([]string{"--user", "call", notifyDest, notifyPath, notifyIface, method, signature}, args...)
	out, err := exec.CommandContext(ctx, "busctl", argv...).CombinedOutput()
	trimmed := strings.TrimSpace(string(out))
	if err != nil {
		if trimmed == "" {
			return "", fmt.Errorf("busctl %s: %w", method, err)
		}
		return "", fmt.Errorf("busctl %s: %w (%s)", method, err, trimmed)
	}
	return trimmed, nil
}

package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationSender delivers one desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// commandSender shells out to the platform's notification tool
type commandSender struct {
	build func(title, message string) *exec.Cmd
}

func (c commandSender) Send(title, message string) error {
	return c.build(title, message).Run()
}

// senderFor returns the notification command for goos, or nil when the
// platform has none we know how to drive
func senderFor(goos string) NotificationSender {
	switch goos {
	case "linux", "freebsd":
		return commandSender{build: func(title, message string) *exec.Cmd {
			return exec.Command("notify-send", "--app-name=tmu", title, message)
		}}
	case "darwin":
		return commandSender{build: func(title, message string) *exec.Cmd {
			script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeQuotes(message), escapeQuotes(title))
			return exec.Command("osascript", "-e", script)
		}}
	case "windows":
		return commandSender{build: func(title, message string) *exec.Cmd {
			return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", toastScript(title, message))
		}}
	}
	return nil
}

func toastScript(title, message string) string {
	quote := func(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" }
	return strings.Join([]string{
		"$t = [Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime]",
		"$xml = $t::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)",
		"$nodes = $xml.GetElementsByTagName('text')",
		"$nodes.Item(0).AppendChild($xml.CreateTextNode(" + quote(title) + ")) | Out-Null",
		"$nodes.Item(1).AppendChild($xml.CreateTextNode(" + quote(message) + ")) | Out-Null",
		"$t::CreateToastNotifier('tmu').Show([Windows.UI.Notifications.ToastNotification]::new($xml))",
	}, "; ")
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// Notifier raises desktop notifications for run milestones. The zero
// value and a nil *Notifier drop everything
type Notifier struct {
	sender NotificationSender
}

// NewNotifier picks the sender for the running platform when enabled
func NewNotifier(enabled bool) *Notifier {
	if !enabled {
		return &Notifier{}
	}
	return &Notifier{sender: senderFor(runtime.GOOS)}
}

// NewNotifierWith uses a specific sender
func NewNotifierWith(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

// Notify is best effort; send failures are dropped
func (n *Notifier) Notify(title, message string) {
	if n == nil || n.sender == nil {
		return
	}
	_ = n.sender.Send(title, message)
}

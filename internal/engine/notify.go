package engine

import "log/slog"

// Notifier receives user-facing notifications as they are raised. The UI
// widget that renders, dedupes, or queues them lives outside this module; a
// misbehaving notifier must never disturb the simulation.
type Notifier interface {
	Notify(entry NotificationEntry)
}

// SlogNotifier logs notifications through slog. It is the default
// collaborator when no UI is attached.
type SlogNotifier struct{}

func (SlogNotifier) Notify(entry NotificationEntry) {
	switch entry.Severity {
	case SeverityWarn:
		slog.Warn("notification", "message", entry.Message)
	case SeverityError:
		slog.Error("notification", "message", entry.Message)
	default:
		slog.Info("notification", "severity", entry.Severity, "message", entry.Message)
	}
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(NotificationEntry) {}

// notifySafely shields the session from a panicking notifier.
func notifySafely(n Notifier, entry NotificationEntry) {
	if n == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("notifier panicked", "panic", r)
		}
	}()
	n.Notify(entry)
}

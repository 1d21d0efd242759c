// Package notify defines the notification collaborator the session driver
// uses to surface user-facing events (toast-style failures, completions).
// It is injected explicitly rather than reached through a process-wide
// dispatcher, so its lifecycle is scoped to the consuming view.
package notify

import (
	"time"

	"go.uber.org/zap"
)

// Level grades a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// String returns the display name for a level.
func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier receives user-facing notifications from the session driver.
type Notifier interface {
	Notify(level Level, message string)
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) Notify(Level, string) {}

// LogNotifier writes notifications to a zap logger. Useful for headless
// runs and tests.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a Notifier backed by logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(level Level, message string) {
	switch level {
	case LevelError:
		n.logger.Error(message)
	case LevelWarn:
		n.logger.Warn(message)
	default:
		n.logger.Info(message)
	}
}

// Notification is one queued event for channel consumers.
type Notification struct {
	Level   Level
	Message string
	Time    time.Time
}

// ChannelNotifier buffers notifications on a channel for a UI to drain.
// When the buffer is full the notification is dropped rather than blocking
// the read loop.
type ChannelNotifier struct {
	ch chan Notification
}

// NewChannelNotifier returns a notifier with the given buffer size.
func NewChannelNotifier(size int) *ChannelNotifier {
	if size <= 0 {
		size = 16
	}
	return &ChannelNotifier{ch: make(chan Notification, size)}
}

func (n *ChannelNotifier) Notify(level Level, message string) {
	select {
	case n.ch <- Notification{Level: level, Message: message, Time: time.Now()}:
	default:
		// Dropping beats stalling the stream read loop.
	}
}

// C exposes the receive side of the notification channel.
func (n *ChannelNotifier) C() <-chan Notification {
	return n.ch
}

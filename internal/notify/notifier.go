// Package notify is the user-facing notification surface. The retry
// coordinator raises one notification per invocation after retries
// are exhausted, unless the caller asked for silence.
package notify

import "log/slog"

// Notification describes a single user-visible failure message.
type Notification struct {
	Message     string
	Description string
	ShowSupport bool
	SupportURL  string
}

// Notifier delivers notifications to whatever surface the host
// application provides.
type Notifier interface {
	Notify(n Notification)
}

// LogNotifier is the default surface: structured log output with an
// optional support link.
type LogNotifier struct {
	log        *slog.Logger
	supportURL string
}

// NewLogNotifier creates a notifier that logs through the given
// logger. supportURL is attached when a notification asks for a
// support action.
func NewLogNotifier(log *slog.Logger, supportURL string) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log, supportURL: supportURL}
}

func (l *LogNotifier) Notify(n Notification) {
	attrs := []any{"message", n.Message}
	if n.Description != "" {
		attrs = append(attrs, "description", n.Description)
	}
	if n.ShowSupport {
		url := n.SupportURL
		if url == "" {
			url = l.supportURL
		}
		attrs = append(attrs, "support", url)
	}
	l.log.Warn("User notification", attrs...)
}

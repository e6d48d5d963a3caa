package notify

import (
	"context"
	"log/slog"
)

// Notifier is the outbound reporting sink for run progress. Delivery is
// best effort everywhere: a failed notification is logged and dropped,
// never escalated to the caller.
type Notifier interface {
	Info(ctx context.Context, message string)
	Error(ctx context.Context, message string)
	// Document delivers a diagnostic file (failure dump, malformed row
	// report) by path.
	Document(ctx context.Context, path string)
}

// Log reports through the default slog logger only.
type Log struct{}

func (Log) Info(ctx context.Context, message string) {
	slog.InfoContext(ctx, message)
}

func (Log) Error(ctx context.Context, message string) {
	slog.ErrorContext(ctx, message)
}

func (Log) Document(ctx context.Context, path string) {
	slog.InfoContext(ctx, "diagnostic file written", "path", path)
}

// Multi fans every notification out to all of its sinks.
type Multi []Notifier

func (m Multi) Info(ctx context.Context, message string) {
	for _, sink := range m {
		sink.Info(ctx, message)
	}
}

func (m Multi) Error(ctx context.Context, message string) {
	for _, sink := range m {
		sink.Error(ctx, message)
	}
}

func (m Multi) Document(ctx context.Context, path string) {
	for _, sink := range m {
		sink.Document(ctx, path)
	}
}

package observability

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// SlogObserver emits events to a slog.Logger. The event type becomes the
// log message and Data keys become attributes in sorted order. Durations
// are rendered in milliseconds.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates a SlogObserver that emits to the given logger.
// A nil logger uses slog.Default at emission time.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	level := event.Level.SlogLevel()
	if !logger.Enabled(ctx, level) {
		return
	}

	keys := make([]string, 0, len(event.Data))
	for k := range event.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys)+1)
	attrs = append(attrs, slog.String("source", event.Source))
	for _, k := range keys {
		switch v := event.Data[k].(type) {
		case time.Duration:
			attrs = append(attrs, slog.Int64(k+"_ms", v.Milliseconds()))
		case error:
			attrs = append(attrs, slog.String(k, v.Error()))
		default:
			attrs = append(attrs, slog.Any(k, v))
		}
	}

	logger.LogAttrs(ctx, level, string(event.Type), attrs...)
}

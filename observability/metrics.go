package observability

import (
	"context"
	"sync"
	"time"
)

// MetricsObserver aggregates event counts and durations in memory. It backs
// the metrics endpoint and replaces an external monitoring stack for a
// single-process deployment.
type MetricsObserver struct {
	mu      sync.Mutex
	started time.Time
	counts  map[EventType]int64
	timings map[EventType]*timing
	errors  int64
	warns   int64
}

type timing struct {
	count int64
	total time.Duration
	max   time.Duration
}

// TimingSummary reports aggregated durations for one event type.
type TimingSummary struct {
	Count   int64   `json:"count"`
	TotalMs int64   `json:"totalMs"`
	AvgMs   float64 `json:"avgMs"`
	MaxMs   int64   `json:"maxMs"`
}

// Snapshot is a point-in-time copy of the aggregated metrics.
type Snapshot struct {
	Started  time.Time                `json:"started"`
	Uptime   string                   `json:"uptime"`
	Events   map[string]int64         `json:"events"`
	Timings  map[string]TimingSummary `json:"timings"`
	Errors   int64                    `json:"errors"`
	Warnings int64                    `json:"warnings"`
}

// NewMetricsObserver creates an empty MetricsObserver.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		started: time.Now(),
		counts:  make(map[EventType]int64),
		timings: make(map[EventType]*timing),
	}
}

func (m *MetricsObserver) OnEvent(ctx context.Context, event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counts[event.Type]++

	switch {
	case event.Level >= LevelError:
		m.errors++
	case event.Level >= LevelWarning:
		m.warns++
	}

	d, ok := event.Data[DurationKey].(time.Duration)
	if !ok {
		return
	}
	t := m.timings[event.Type]
	if t == nil {
		t = &timing{}
		m.timings[event.Type] = t
	}
	t.count++
	t.total += d
	t.max = max(t.max, d)
}

// Count returns how many events of typ were observed.
func (m *MetricsObserver) Count(typ EventType) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[typ]
}

// Snapshot copies the current metrics.
func (m *MetricsObserver) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Started:  m.started,
		Uptime:   time.Since(m.started).Round(time.Second).String(),
		Events:   make(map[string]int64, len(m.counts)),
		Timings:  make(map[string]TimingSummary, len(m.timings)),
		Errors:   m.errors,
		Warnings: m.warns,
	}
	for typ, n := range m.counts {
		snap.Events[string(typ)] = n
	}
	for typ, t := range m.timings {
		snap.Timings[string(typ)] = TimingSummary{
			Count:   t.count,
			TotalMs: t.total.Milliseconds(),
			AvgMs:   float64(t.total.Milliseconds()) / float64(t.count),
			MaxMs:   t.max.Milliseconds(),
		}
	}
	return snap
}

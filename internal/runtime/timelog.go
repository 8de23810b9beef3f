package runtime

import (
	"sync"
	"time"
)

// TimingEntry is one completed timed section.
type TimingEntry struct {
	Name     string        `json:"name"`
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
}

// TimeLogger records named start/stop sections.
type TimeLogger struct {
	mu      sync.Mutex
	now     func() time.Time
	open    map[string]time.Time
	entries []TimingEntry
}

// NewTimeLogger creates an empty time logger.
func NewTimeLogger() *TimeLogger {
	return &TimeLogger{now: time.Now, open: make(map[string]time.Time)}
}

// Start opens the named section.
func (t *TimeLogger) Start(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open[name] = t.now()
}

// Stop closes the named section and returns its duration. Stopping a section
// that was never started returns zero.
func (t *TimeLogger) Stop(name string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	start, ok := t.open[name]
	if !ok {
		return 0
	}
	delete(t.open, name)
	d := t.now().Sub(start)
	t.entries = append(t.entries, TimingEntry{Name: name, Start: start, Duration: d})
	return d
}

// Entries returns the completed sections in stop order.
func (t *TimeLogger) Entries() []TimingEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TimingEntry(nil), t.entries...)
}

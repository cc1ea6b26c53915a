// Package progress counts per-file execution outcomes and fans them out to
// reporters (a log line, a websocket stream).
package progress

import (
	"sync"
)

// Event is one progress update. Done counts finished files, failed included.
type Event struct {
	RunID  string `json:"runId,omitempty"`
	Done   int    `json:"done"`
	Failed int    `json:"failed"`
	Total  int    `json:"total"`
	Path   string `json:"path"`
	Status string `json:"status"`
}

type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) { f(e) }

// Tracker owns the progress counters. Record is safe for concurrent use and
// reporters are called in order, one event at a time.
type Tracker struct {
	mu        sync.Mutex
	runID     string
	total     int
	done      int
	failed    int
	reporters []Reporter
}

func NewTracker(runID string, total int, reporters ...Reporter) *Tracker {
	return &Tracker{runID: runID, total: total, reporters: reporters}
}

// Record counts one finished file and notifies reporters. A nil Tracker is a no-op.
func (t *Tracker) Record(path, status string, failed bool) Event {
	if t == nil {
		return Event{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done++
	if failed {
		t.failed++
	}
	e := Event{RunID: t.runID, Done: t.done, Failed: t.failed, Total: t.total, Path: path, Status: status}
	for _, r := range t.reporters {
		r.Report(e)
	}
	return e
}

// Snapshot returns the counters without recording anything.
func (t *Tracker) Snapshot() Event {
	if t == nil {
		return Event{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return Event{RunID: t.runID, Done: t.done, Failed: t.failed, Total: t.total}
}

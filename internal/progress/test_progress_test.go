package progress

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerCountsConcurrentRecords(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	tr := NewTracker("run-1", 50, ReporterFunc(func(e Event) {
		mu.Lock()
		seen = append(seen, e.Done)
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr.Record(fmt.Sprintf("f%d", i), "done", i%5 == 0)
		}(i)
	}
	wg.Wait()

	snap := tr.Snapshot()
	assert.Equal(t, Event{RunID: "run-1", Done: 50, Failed: 10, Total: 50}, snap)
	// reporters see a strictly increasing count
	require.Len(t, seen, 50)
	for i, n := range seen {
		assert.Equal(t, i+1, n)
	}
}

func TestNilTracker(t *testing.T) {
	var tr *Tracker
	assert.Equal(t, Event{}, tr.Record("a", "done", false))
	assert.Equal(t, Event{}, tr.Snapshot())
}

func TestLogReporter(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	tr := NewTracker("", 2, LogReporter(logger))
	tr.Record("a.py", "done", false)
	tr.Record("b.py", "failed", true)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "compressed 1/2: a.py", entries[0].Message)
	assert.Equal(t, logrus.InfoLevel, entries[0].Level)
	assert.Equal(t, "compression failed 2/2: b.py", entries[1].Message)
	assert.Equal(t, logrus.WarnLevel, entries[1].Level)
	assert.Equal(t, "b.py", entries[1].Data["path"])
}

func TestHubStreamsEvents(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	hub := NewHub(logger)
	hub.Report(Event{Done: 1, Total: 3, Path: "a.py", Status: "done"})

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	// the latest event is replayed on connect
	var e Event
	require.NoError(t, conn.ReadJSON(&e))
	assert.Equal(t, "a.py", e.Path)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	hub.Report(Event{Done: 2, Total: 3, Path: "b.py", Status: "failed", Failed: 1})
	require.NoError(t, conn.ReadJSON(&e))
	assert.Equal(t, Event{Done: 2, Total: 3, Path: "b.py", Status: "failed", Failed: 1}, e)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPushEventDropsOldest(t *testing.T) {
	ch := make(chan Event, 2)
	for i := 1; i <= 3; i++ {
		pushEvent(ch, Event{Done: i})
	}
	assert.Equal(t, 2, (<-ch).Done)
	assert.Equal(t, 3, (<-ch).Done)
}

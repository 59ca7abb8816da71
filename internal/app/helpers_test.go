package app_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/BaghChal/internal/core"
	"github.com/dkeye/BaghChal/internal/domain"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type delivery struct {
	Conn  domain.ConnID
	Event core.Event
}

// recorder is a core.Notifier that keeps every event and can fail chosen conns.
type recorder struct {
	mu   sync.Mutex
	got  []delivery
	fail map[domain.ConnID]error
}

func newRecorder() *recorder { return &recorder{fail: map[domain.ConnID]error{}} }

func (r *recorder) Deliver(conn domain.ConnID, ev core.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[conn]; err != nil {
		return err
	}
	r.got = append(r.got, delivery{Conn: conn, Event: ev})
	return nil
}

func (r *recorder) For(conn domain.ConnID) []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.Event
	for _, d := range r.got {
		if d.Conn == conn {
			out = append(out, d.Event)
		}
	}
	return out
}

func (r *recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

// fakeSignal is a core.SignalConnection that stores frames.
type fakeSignal struct {
	mu     sync.Mutex
	frames []core.Frame
	err    error
}

func (f *fakeSignal) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, append(core.Frame(nil), fr...))
	return nil
}

func (f *fakeSignal) Close() {}

func (f *fakeSignal) events(t *testing.T) []core.Event {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Event, 0, len(f.frames))
	for _, fr := range f.frames {
		var ev core.Event
		require.NoError(t, json.Unmarshal(fr, &ev))
		out = append(out, ev)
	}
	return out
}

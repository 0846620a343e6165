package form

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSessionExpiresAfterTimeout(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := NewStore()
	st.now = func() time.Time { return now }
	e := NewEngine(st)

	f := testProfileForm(nil)
	e.Begin(context.Background(), 1, f)

	now = now.Add(f.Timeout - time.Second)
	if _, err := e.Handle(context.Background(), 1, Event{Kind: EventText, Text: "Анна"}); err != nil {
		t.Fatalf("one second before the deadline: %v", err)
	}

	// The answer refreshed the deadline; idle past the full timeout now.
	now = now.Add(f.Timeout)
	if _, err := e.Handle(context.Background(), 1, Event{Kind: EventText, Text: "25"}); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("err = %v, want ErrNoActiveSession", err)
	}
	if st.Len() != 0 {
		t.Fatalf("expired session still stored, len = %d", st.Len())
	}
}

func TestBeginReplacesExistingSession(t *testing.T) {
	e := newTestEngine()
	f := testProfileForm(nil)

	e.Begin(context.Background(), 1, f)
	text(t, e, 1, "Анна")

	// Restarting drops the collected draft and returns to the first step.
	res := e.Begin(context.Background(), 1, f)
	if res.State != "name" {
		t.Fatalf("state after restart = %q", res.State)
	}
	s := e.store.Get(1)
	if s == nil || len(s.Draft) != 0 {
		t.Fatalf("restart kept draft: %#v", s)
	}
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := NewStore()
	st.now = func() time.Time { return now }
	f := testProfileForm(nil)

	st.Begin(1, f)
	st.Begin(2, f)

	now = now.Add(f.Timeout / 2)
	if n := st.Sweep(); n != 0 {
		t.Fatalf("sweep evicted %d fresh sessions", n)
	}

	now = now.Add(f.Timeout)
	if n := st.Sweep(); n != 2 {
		t.Fatalf("sweep evicted %d, want 2", n)
	}
	if st.Len() != 0 {
		t.Fatalf("len after sweep = %d", st.Len())
	}
}

func TestSweepSkipsSessionsInFlight(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := NewStore()
	st.now = func() time.Time { return now }

	s := st.Begin(1, testProfileForm(nil))
	now = now.Add(time.Hour)

	s.mu.Lock()
	if n := st.Sweep(); n != 0 {
		t.Fatalf("sweep evicted a locked session, n = %d", n)
	}
	s.mu.Unlock()

	if n := st.Sweep(); n != 1 {
		t.Fatalf("sweep after unlock evicted %d, want 1", n)
	}
}

func TestRemoveEvictsSession(t *testing.T) {
	st := NewStore()
	s := st.Begin(1, testProfileForm(nil))
	st.Remove(1)
	if st.Get(1) != nil {
		t.Fatal("removed session still retrievable")
	}
	if !s.evicted.Load() {
		t.Fatal("removed session not marked evicted")
	}
}

package form

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/onenight/onenightbot/core/logger"
	"log/slog"
)

// Session is the per-user scratch space of one in-progress form. At most one
// session exists per user; a new Begin replaces any previous one.
//
// evicted and lastTouched are atomics so the store can mark or inspect a
// session without taking s.mu. Store methods hold st.mu and must never block
// on a session mutex: the engine drops finished sessions while holding s.mu,
// and acquiring the two locks in both orders would deadlock.
type Session struct {
	UserID  int64
	Form    *Form
	StepIdx int
	Draft   Draft

	CreatedAt time.Time

	lastTouched atomic.Int64 // unix nanos
	evicted     atomic.Bool

	mu sync.Mutex
}

func (s *Session) touch(t time.Time) {
	s.lastTouched.Store(t.UnixNano())
}

// State returns the current step identifier or a terminal marker.
func (s *Session) State() string {
	if s.StepIdx >= len(s.Form.Steps) {
		return StateConfirming
	}
	return string(s.Form.Steps[s.StepIdx].ID)
}

func (s *Session) expired(now time.Time) bool {
	timeout := s.Form.Timeout
	if timeout <= 0 {
		return false
	}
	return now.Sub(time.Unix(0, s.lastTouched.Load())) >= timeout
}

// Store keys sessions by user identity. Access to an individual session is
// serialized through its own mutex; the store mutex only guards the map.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	now      func() time.Time
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		now:      time.Now,
	}
}

// Begin allocates a fresh session for the user, replacing any existing one.
func (st *Store) Begin(userID int64, f *Form) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if old, ok := st.sessions[userID]; ok {
		old.evicted.Store(true)
	}

	now := st.now()
	s := &Session{
		UserID:    userID,
		Form:      f,
		Draft:     make(Draft),
		CreatedAt: now,
	}
	s.touch(now)
	st.sessions[userID] = s
	return s
}

// Get returns the user's live session, lazily evicting an expired one.
func (st *Store) Get(userID int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[userID]
	if !ok {
		return nil
	}
	if s.expired(st.now()) {
		s.evicted.Store(true)
		delete(st.sessions, userID)
		return nil
	}
	return s
}

// Remove destroys the user's session, if any.
func (st *Store) Remove(userID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[userID]; ok {
		s.evicted.Store(true)
		delete(st.sessions, userID)
	}
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep evicts idle sessions. A session whose mutex is held by an in-flight
// transition is skipped; the transition refreshes the touch timestamp so the
// next sweep sees it as active. TryLock keeps the store from ever blocking on
// a session mutex while st.mu is held.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	evicted := 0
	for id, s := range st.sessions {
		if !s.mu.TryLock() {
			continue
		}
		if s.expired(now) {
			s.evicted.Store(true)
			delete(st.sessions, id)
			evicted++
		}
		s.mu.Unlock()
	}
	return evicted
}

// Run sweeps idle sessions on the given interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				logger.Debug(ctx, "form", "session.sweep",
					slog.Int("count", n),
				)
			}
		}
	}
}

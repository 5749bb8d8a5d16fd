package game

import (
	"context"
	"time"

	"github.com/google/uuid"

	"memgame/internal/logger"
	"memgame/internal/metrics"
	"memgame/pkg/realtime"
)

// SSE event names published when a session changes.
const (
	EventBoard   = "board"
	EventStatus  = "status"
	EventOutcome = "outcome"
)

// Store holds sessions and delegates to realtime.RoomStore for lookup and broadcast.
type Store struct {
	r         *realtime.RoomStore[*Session]
	settings  Settings
	source    ItemSource
	scheduler realtime.Scheduler
	metrics   *metrics.Metrics
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithScheduler overrides the clock sessions schedule on.
func WithScheduler(s realtime.Scheduler) StoreOption {
	return func(st *Store) { st.scheduler = s }
}

// WithMetrics records session counters on m.
func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(st *Store) { st.metrics = m }
}

// NewStore creates an in-memory session store with SSE broadcasters.
func NewStore(settings Settings, source ItemSource, opts ...StoreOption) *Store {
	s := &Store{
		r:         realtime.NewRoomStore[*Session](),
		settings:  settings,
		source:    source,
		scheduler: realtime.SystemScheduler{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession registers an idle session. Call Start on it to deal a board.
func (s *Store) CreateSession() *Session {
	sess := NewSession(uuid.NewString(), s.settings, Deps{
		Source:    s.source,
		Observer:  s,
		Scheduler: s.scheduler,
	})
	s.r.Create(sess.ID, sess)
	s.metrics.SetLiveSessions(s.r.Len())
	return sess
}

// GetSession returns a session by ID if it exists.
func (s *Store) GetSession(id string) (*Session, bool) {
	room, ok := s.r.Get(id)
	if !ok {
		return nil, false
	}
	return room.State, true
}

// Broadcaster returns the SSE broadcaster for a session.
func (s *Store) Broadcaster(id string) (*realtime.Broadcaster, bool) {
	return s.r.Broadcaster(id)
}

// Publish notifies subscribers of a session update.
func (s *Store) Publish(id string, events ...string) {
	s.r.Publish(id, events...)
}

// Touch keeps a session from being swept.
func (s *Store) Touch(id string) {
	s.r.Touch(id)
}

// Settings returns the settings new sessions are created with.
func (s *Store) Settings() Settings {
	return s.settings
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.r.Len()
}

// SessionStarted implements Observer.
func (s *Store) SessionStarted(_ string, d Difficulty, _ int) {
	s.metrics.SessionStarted(string(d))
}

// SessionChanged implements Observer.
func (s *Store) SessionChanged(id string, _ Snapshot) {
	s.r.Touch(id)
	s.r.Publish(id, EventStatus, EventBoard)
}

// SessionFinished implements Observer.
func (s *Store) SessionFinished(id string, outcome Outcome) {
	s.metrics.SessionFinished(string(outcome))
	s.r.Publish(id, EventOutcome)
}

// Sweep closes and removes sessions idle since before cutoff.
func (s *Store) Sweep(cutoff time.Time) int {
	removed := 0
	for _, id := range s.r.Expired(cutoff) {
		sess, ok := s.r.Delete(id)
		if !ok {
			continue
		}
		sess.Close()
		removed++
	}
	if removed > 0 {
		s.metrics.SetLiveSessions(s.r.Len())
		logger.Get().Info("swept idle sessions", "removed", removed, "live", s.r.Len())
	}
	return removed
}

// RunJanitor sweeps sessions idle longer than ttl every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now.UTC().Add(-ttl))
		}
	}
}

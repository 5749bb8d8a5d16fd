package game

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"memgame/internal/logger"
	"memgame/pkg/realtime"
)

// Outcome is how a session ended.
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeWon  Outcome = "won"
	OutcomeLost Outcome = "lost"
)

// ItemSource supplies the creatures for a board. Implementations never fail
// loudly: on error they return fewer items, possibly none.
type ItemSource interface {
	FetchItems(ctx context.Context, count int) []Item
}

// Observer is told about state changes after the session lock is released.
// Calls from different goroutines may interleave, so consumers that need the
// latest state should re-read Snapshot.
type Observer interface {
	SessionStarted(id string, d Difficulty, pairs int)
	SessionChanged(id string, snap Snapshot)
	SessionFinished(id string, outcome Outcome)
}

// State is the per-session game state.
type State struct {
	Difficulty   Difficulty
	TotalPairs   int
	TimeLimit    int
	TimeLeft     int
	Clicks       int
	MatchedPairs int
	Flipped      []int
	Processing   bool
	Powerups     int
	Active       bool
	Loading      bool
	LoadFailed   bool
	Outcome      Outcome
}

// Deps are the collaborators a Session needs.
type Deps struct {
	Source    ItemSource
	Observer  Observer
	Scheduler realtime.Scheduler
	Rand      *rand.Rand
}

// Session owns one board and serializes every event touching it: clicks,
// countdown ticks, deferred turn resolution, power-up expiry and fetch
// completion. Each run of Start bumps the generation, which makes callbacks
// scheduled by an earlier run inert.
type Session struct {
	mu        sync.Mutex
	ID        string
	CreatedAt time.Time

	settings  Settings
	source    ItemSource
	observer  Observer
	rng       *rand.Rand
	countdown *realtime.Countdown
	tasks     *realtime.Tasks
	log       *slog.Logger

	generation  uint64
	cancelFetch context.CancelFunc
	state       State
	cards       []Card
	peeks       map[int]uint64
	peekSeq     uint64
	announce    bool
}

// NewSession creates an idle session on the easy level. Call Start to deal.
func NewSession(id string, settings Settings, deps Deps) *Session {
	if deps.Scheduler == nil {
		deps.Scheduler = realtime.SystemScheduler{}
	}
	if deps.Rand == nil {
		deps.Rand = newRand()
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	s := &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		settings:  settings,
		source:    deps.Source,
		observer:  deps.Observer,
		rng:       deps.Rand,
		countdown: realtime.NewCountdown(deps.Scheduler, settings.TickInterval),
		tasks:     realtime.NewTasks(deps.Scheduler),
		log:       logger.With("session", id),
		peeks:     make(map[int]uint64),
	}
	s.state.Difficulty = DifficultyEasy
	if level, ok := settings.Level(DifficultyEasy); ok {
		s.state.TotalPairs = level.Pairs
		s.state.TimeLimit = level.Seconds
		s.state.TimeLeft = level.Seconds
	}
	s.state.Powerups = settings.Powerups
	return s
}

// Start begins a fresh run at difficulty d, discarding the current board.
// Unknown difficulties keep the current one. Start blocks while items are
// fetched; if another Start supersedes it meanwhile, its items are dropped.
func (s *Session) Start(ctx context.Context, d Difficulty) {
	s.mu.Lock()
	level, ok := s.settings.Level(d)
	if !ok {
		d = s.state.Difficulty
		level, ok = s.settings.Level(d)
		if !ok {
			s.mu.Unlock()
			s.log.Warn("no level configured", "difficulty", d)
			return
		}
	}
	s.haltLocked()
	s.generation++
	gen := s.generation
	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancelFetch = cancel
	s.cards = nil
	s.state = State{
		Difficulty: d,
		TotalPairs: level.Pairs,
		TimeLimit:  level.Seconds,
		TimeLeft:   level.Seconds,
		Powerups:   s.settings.Powerups,
		Loading:    true,
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.observer.SessionChanged(s.ID, snap)

	var items []Item
	if s.source != nil {
		items = s.source.FetchItems(fetchCtx, level.Pairs)
	}
	cancel()

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.log.Debug("discarding superseded fetch", "generation", gen)
		return
	}
	s.cancelFetch = nil
	s.state.Loading = false
	if len(items) == 0 {
		s.state.LoadFailed = true
		snap = s.snapshotLocked()
		s.mu.Unlock()
		s.log.Warn("no items loaded, board left empty", "difficulty", d)
		s.observer.SessionChanged(s.ID, snap)
		return
	}
	if len(items) > level.Pairs {
		items = items[:level.Pairs]
	}
	s.cards = BuildBoard(items, s.rng)
	s.state.TotalPairs = len(items)
	s.state.Active = true
	s.countdown.Start(level.Seconds,
		func(left int) { s.tick(gen, left) },
		func() { s.expire(gen) },
	)
	snap = s.snapshotLocked()
	s.mu.Unlock()
	s.log.Info("session started", "difficulty", d, "pairs", len(items), "seconds", level.Seconds)
	s.observer.SessionStarted(s.ID, d, len(items))
	s.observer.SessionChanged(s.ID, snap)
}

// Reset starts over at the current difficulty.
func (s *Session) Reset(ctx context.Context) {
	s.Start(ctx, s.Difficulty())
}

// ChangeDifficulty switches level and starts over. Unknown levels are ignored.
func (s *Session) ChangeDifficulty(ctx context.Context, d Difficulty) {
	if _, ok := s.settings.Level(d); !ok {
		return
	}
	s.Start(ctx, d)
}

// Difficulty returns the configured level.
func (s *Session) Difficulty() Difficulty {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Difficulty
}

// ActivatePowerup briefly reveals every face-down card. Peeked cards stay
// selectable; once the window closes, those still peeked and unmatched are
// turned back down.
func (s *Session) ActivatePowerup() {
	s.mu.Lock()
	if !s.state.Active || s.state.Powerups <= 0 {
		s.mu.Unlock()
		return
	}
	s.state.Powerups--
	s.peekSeq++
	seq := s.peekSeq
	gen := s.generation
	for i := range s.cards {
		c := &s.cards[i]
		if c.Matched {
			continue
		}
		if _, peeked := s.peeks[i]; peeked || !c.FaceUp {
			c.FaceUp = true
			s.peeks[i] = seq
		}
	}
	s.tasks.After(s.settings.PeekWindow, func() { s.endPeek(gen, seq) })
	s.emitLocked()
}

func (s *Session) endPeek(gen, seq uint64) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	for pos, stamp := range s.peeks {
		if stamp != seq {
			continue
		}
		delete(s.peeks, pos)
		c := &s.cards[pos]
		if !c.Matched && c.FaceUp {
			c.FaceUp = false
		}
	}
	s.emitLocked()
}

func (s *Session) tick(gen uint64, left int) {
	s.mu.Lock()
	if gen != s.generation || !s.state.Active {
		s.mu.Unlock()
		return
	}
	s.state.TimeLeft = left
	s.emitLocked()
}

func (s *Session) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || !s.state.Active {
		s.mu.Unlock()
		return
	}
	s.state.TimeLeft = 0
	s.finalizeLocked(false)
	s.emitLocked()
}

// finalizeLocked ends the run once. Deferred actions are canceled, so cards
// they would have turned down are turned down here.
func (s *Session) finalizeLocked(won bool) {
	if !s.state.Active {
		return
	}
	s.countdown.Stop()
	s.tasks.CancelAll()
	s.state.Active = false
	s.state.Processing = false
	s.state.Flipped = nil
	for i := range s.cards {
		if !s.cards[i].Matched {
			s.cards[i].FaceUp = false
		}
	}
	clear(s.peeks)
	if won {
		s.state.Outcome = OutcomeWon
	} else {
		s.state.Outcome = OutcomeLost
	}
	s.announce = true
	s.log.Info("session finished", "outcome", s.state.Outcome, "clicks", s.state.Clicks, "time_left", s.state.TimeLeft)
}

// Close stops the countdown and any pending work without reporting an outcome.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.haltLocked()
	s.generation++
	s.state.Active = false
}

func (s *Session) haltLocked() {
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	s.countdown.Stop()
	s.tasks.CancelAll()
	clear(s.peeks)
}

// emitLocked snapshots, unlocks and notifies the observer.
func (s *Session) emitLocked() {
	snap := s.snapshotLocked()
	announce := s.announce
	s.announce = false
	outcome := s.state.Outcome
	s.mu.Unlock()
	s.observer.SessionChanged(s.ID, snap)
	if announce {
		s.observer.SessionFinished(s.ID, outcome)
	}
}

type nopObserver struct{}

func (nopObserver) SessionStarted(string, Difficulty, int) {}
func (nopObserver) SessionChanged(string, Snapshot)        {}
func (nopObserver) SessionFinished(string, Outcome)        {}

package handlers

import (
	"context"
	"time"

	"memgame/internal/game"
)

// Starter deals boards off the request goroutine so a slow catalog never
// holds a response open. Fetches are bounded by timeout and canceled when
// base is done.
type Starter struct {
	base    context.Context
	timeout time.Duration
	run     func(func())
}

func NewStarter(base context.Context, timeout time.Duration) *Starter {
	return &Starter{
		base:    base,
		timeout: timeout,
		run:     func(f func()) { go f() },
	}
}

// Start deals a new board at difficulty d.
func (s *Starter) Start(sess *game.Session, d game.Difficulty) {
	s.run(func() {
		ctx, cancel := context.WithTimeout(s.base, s.timeout)
		defer cancel()
		sess.Start(ctx, d)
	})
}

// Reset deals a new board at the session's current difficulty.
func (s *Starter) Reset(sess *game.Session) {
	s.Start(sess, sess.Difficulty())
}

// ChangeDifficulty deals a new board at d. Unknown levels are ignored.
func (s *Starter) ChangeDifficulty(sess *game.Session, d game.Difficulty) {
	s.run(func() {
		ctx, cancel := context.WithTimeout(s.base, s.timeout)
		defer cancel()
		sess.ChangeDifficulty(ctx, d)
	})
}

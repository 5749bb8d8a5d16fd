package game

import "slices"

// Select flips the card at position. It is silently ignored when the session
// is inactive, a pair is awaiting resolution, the position is out of range,
// or the card is matched, already selected, or face up for any reason other
// than a power-up peek.
func (s *Session) Select(position int) {
	s.mu.Lock()
	if !s.selectLocked(position) {
		s.mu.Unlock()
		return
	}
	s.emitLocked()
}

func (s *Session) selectLocked(position int) bool {
	if !s.state.Active || s.state.Processing {
		return false
	}
	if position < 0 || position >= len(s.cards) {
		return false
	}
	c := &s.cards[position]
	if c.Matched || slices.Contains(s.state.Flipped, position) {
		return false
	}
	_, peeked := s.peeks[position]
	if c.FaceUp && !peeked {
		return false
	}
	delete(s.peeks, position)
	s.state.Clicks++
	c.FaceUp = true
	s.state.Flipped = append(s.state.Flipped, position)
	if len(s.state.Flipped) == 2 {
		s.state.Processing = true
		s.resolveLocked()
	}
	return true
}

// resolveLocked compares the two selected cards. A match is permanent at once;
// either way the turn is settled after RevealDelay in a single deferred action.
func (s *Session) resolveLocked() {
	first, second := s.state.Flipped[0], s.state.Flipped[1]
	a, b := &s.cards[first], &s.cards[second]
	matched := a.Item.Name == b.Item.Name
	if matched {
		a.Matched, b.Matched = true, true
		s.state.MatchedPairs++
		s.log.Debug("pair matched", "item", a.Item.Name, "matched", s.state.MatchedPairs)
		if s.checkWinLocked() {
			return
		}
	}
	gen := s.generation
	s.tasks.After(s.settings.RevealDelay, func() { s.settleTurn(gen, first, second, matched) })
}

func (s *Session) settleTurn(gen uint64, first, second int, matched bool) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	if !matched {
		for _, pos := range []int{first, second} {
			if !s.cards[pos].Matched {
				s.cards[pos].FaceUp = false
			}
		}
	}
	s.state.Flipped = nil
	s.state.Processing = false
	s.emitLocked()
}

// checkWinLocked finalizes the session as won once every pair is matched.
func (s *Session) checkWinLocked() bool {
	if s.state.TotalPairs == 0 || s.state.MatchedPairs < s.state.TotalPairs {
		return false
	}
	s.finalizeLocked(true)
	return true
}

// CardView is what the presentation layer may see of a card. Face-down cards
// hide their item.
type CardView struct {
	Position int
	FaceUp   bool
	Matched  bool
	Name     string
	Image    string
}

// Snapshot is a consistent copy of the session for rendering.
type Snapshot struct {
	ID         string
	Difficulty Difficulty
	Clicks     int
	Matched    int
	Remaining  int
	TotalPairs int
	TimeLimit  int
	TimeLeft   int
	Powerups   int
	Processing bool
	Active     bool
	Loading    bool
	LoadFailed bool
	Outcome    Outcome
	Cards      []CardView
}

// Snapshot returns the current status and card states.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// State returns a copy of the raw game state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Flipped = slices.Clone(s.state.Flipped)
	return st
}

// Cards returns a copy of the board, items included.
func (s *Session) Cards() []Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cards)
}

func (s *Session) snapshotLocked() Snapshot {
	cards := make([]CardView, len(s.cards))
	for i, c := range s.cards {
		view := CardView{Position: c.Position, FaceUp: c.FaceUp, Matched: c.Matched}
		if c.FaceUp {
			view.Name = c.Item.Name
			view.Image = c.Item.Image
		}
		cards[i] = view
	}
	return Snapshot{
		ID:         s.ID,
		Difficulty: s.state.Difficulty,
		Clicks:     s.state.Clicks,
		Matched:    s.state.MatchedPairs,
		Remaining:  s.state.TotalPairs - s.state.MatchedPairs,
		TotalPairs: s.state.TotalPairs,
		TimeLimit:  s.state.TimeLimit,
		TimeLeft:   s.state.TimeLeft,
		Powerups:   s.state.Powerups,
		Processing: s.state.Processing,
		Active:     s.state.Active,
		Loading:    s.state.Loading,
		LoadFailed: s.state.LoadFailed,
		Outcome:    s.state.Outcome,
		Cards:      cards,
	}
}

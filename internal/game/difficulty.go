package game

import (
	"strings"
	"time"
)

// Difficulty names a pair-count and time-limit bundle.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the levels in menu order.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// ParseDifficulty normalizes a form value. Unknown names report false.
func ParseDifficulty(value string) (Difficulty, bool) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(value)))
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, true
	}
	return "", false
}

// Level is what a difficulty resolves to.
type Level struct {
	Pairs   int
	Seconds int
}

// Settings tunes every session created by a Store.
type Settings struct {
	Levels       map[Difficulty]Level
	Powerups     int
	RevealDelay  time.Duration
	PeekWindow   time.Duration
	TickInterval time.Duration
}

// DefaultSettings mirrors the stock game: three power-ups, a one second
// mismatch delay and a two second peek.
func DefaultSettings() Settings {
	return Settings{
		Levels: map[Difficulty]Level{
			DifficultyEasy:   {Pairs: 3, Seconds: 20},
			DifficultyMedium: {Pairs: 5, Seconds: 90},
			DifficultyHard:   {Pairs: 8, Seconds: 120},
		},
		Powerups:     3,
		RevealDelay:  time.Second,
		PeekWindow:   2 * time.Second,
		TickInterval: time.Second,
	}
}

// Level resolves d; unknown or non-positive entries report false.
func (s Settings) Level(d Difficulty) (Level, bool) {
	level, ok := s.Levels[d]
	if !ok || level.Pairs <= 0 || level.Seconds <= 0 {
		return Level{}, false
	}
	return level, true
}

// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"memgame/internal/game"
)

// Config is the full server configuration.
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"MEMGAME_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"MEMGAME_LOG_FORMAT" envDefault:"text"`

	PokeAPIURL       string        `env:"MEMGAME_POKEAPI_URL" envDefault:"https://pokeapi.co/api/v2"`
	CatalogLimit     int           `env:"MEMGAME_CATALOG_LIMIT" envDefault:"1500"`
	FetchTimeout     time.Duration `env:"MEMGAME_FETCH_TIMEOUT" envDefault:"15s"`
	FetchConcurrency int           `env:"MEMGAME_FETCH_CONCURRENCY" envDefault:"8"`
	PlaceholderImage string        `env:"MEMGAME_PLACEHOLDER_IMAGE" envDefault:"/static/placeholder.svg"`

	Powerups    int           `env:"MEMGAME_POWERUPS" envDefault:"3"`
	RevealDelay time.Duration `env:"MEMGAME_REVEAL_DELAY" envDefault:"1s"`
	PeekWindow  time.Duration `env:"MEMGAME_PEEK_WINDOW" envDefault:"2s"`

	EasyPairs     int `env:"MEMGAME_EASY_PAIRS" envDefault:"3"`
	EasySeconds   int `env:"MEMGAME_EASY_SECONDS" envDefault:"20"`
	MediumPairs   int `env:"MEMGAME_MEDIUM_PAIRS" envDefault:"5"`
	MediumSeconds int `env:"MEMGAME_MEDIUM_SECONDS" envDefault:"90"`
	HardPairs     int `env:"MEMGAME_HARD_PAIRS" envDefault:"8"`
	HardSeconds   int `env:"MEMGAME_HARD_SECONDS" envDefault:"120"`

	SessionTTL      time.Duration `env:"MEMGAME_SESSION_TTL" envDefault:"30m"`
	JanitorInterval time.Duration `env:"MEMGAME_JANITOR_INTERVAL" envDefault:"1m"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the game cannot run with.
func (c Config) Validate() error {
	levels := map[string][2]int{
		"easy":   {c.EasyPairs, c.EasySeconds},
		"medium": {c.MediumPairs, c.MediumSeconds},
		"hard":   {c.HardPairs, c.HardSeconds},
	}
	for name, l := range levels {
		if l[0] <= 0 || l[1] <= 0 {
			return fmt.Errorf("config: %s level needs positive pairs and seconds, got %d/%d", name, l[0], l[1])
		}
	}
	if c.Powerups < 0 {
		return fmt.Errorf("config: MEMGAME_POWERUPS must not be negative")
	}
	if c.RevealDelay <= 0 || c.PeekWindow <= 0 {
		return fmt.Errorf("config: reveal delay and peek window must be positive")
	}
	if c.SessionTTL <= 0 || c.JanitorInterval <= 0 {
		return fmt.Errorf("config: session TTL and janitor interval must be positive")
	}
	return nil
}

// Addr is the listen address derived from Port.
func (c Config) Addr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	return ":" + strings.TrimPrefix(port, ":")
}

// GameSettings converts the config into engine settings.
func (c Config) GameSettings() game.Settings {
	s := game.DefaultSettings()
	s.Levels = map[game.Difficulty]game.Level{
		game.DifficultyEasy:   {Pairs: c.EasyPairs, Seconds: c.EasySeconds},
		game.DifficultyMedium: {Pairs: c.MediumPairs, Seconds: c.MediumSeconds},
		game.DifficultyHard:   {Pairs: c.HardPairs, Seconds: c.HardSeconds},
	}
	s.Powerups = c.Powerups
	s.RevealDelay = c.RevealDelay
	s.PeekWindow = c.PeekWindow
	return s
}

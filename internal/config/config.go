// Package config provides YAML-based configuration for the pong-arena server:
// listen address and storage paths, gameplay tunables, and the AI difficulty
// table.
package config

import "github.com/vovakirdan/pong-arena/internal/arena"

// Config is the root configuration document.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Game   GameConfig   `yaml:"game"`
	AI     AIConfig     `yaml:"ai"`
}

// ServerConfig holds the serving surface settings.
type ServerConfig struct {
	// Addr is the host:port the HTTP/websocket server listens on.
	Addr string `yaml:"addr"`

	// DBPath is the path to the match-history database. Empty disables
	// persistence.
	DBPath string `yaml:"db_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// GameConfig holds the gameplay tunables. Defaults match the constants the
// clients were built against; override with care.
type GameConfig struct {
	TickRate      int     `yaml:"tick_rate"`
	WinScore      int     `yaml:"win_score"`
	PaddleStep    float64 `yaml:"paddle_step"`
	ServeSpeed    float64 `yaml:"serve_speed"`
	MaxBallSpeed  float64 `yaml:"max_ball_speed"`
	SpeedUpFactor float64 `yaml:"speed_up_factor"`
	SpinFactor    float64 `yaml:"spin_factor"`
}

// AIProfile defines how an AI paddle behaves at one difficulty level.
type AIProfile struct {
	// ReactionDelay is how many ticks pass between target recomputations.
	ReactionDelay int `yaml:"reaction_delay"`

	// ErrorMargin is the width in arena units of the aiming noise band.
	ErrorMargin float64 `yaml:"error_margin"`

	// Speed is how far the paddle moves per tick, in arena units.
	Speed float64 `yaml:"speed"`
}

// AIConfig is the difficulty table.
type AIConfig struct {
	Easy   AIProfile `yaml:"easy"`
	Medium AIProfile `yaml:"medium"`
	Hard   AIProfile `yaml:"hard"`
}

// Difficulty is a named AI difficulty preset.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty normalizes a wire value to a known preset.
// Unknown or empty values fall back to medium.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s)
	default:
		return DifficultyMedium
	}
}

// Profile returns the AI profile for a difficulty preset.
func (c AIConfig) Profile(d Difficulty) AIProfile {
	switch d {
	case DifficultyEasy:
		return c.Easy
	case DifficultyHard:
		return c.Hard
	default:
		return c.Medium
	}
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:     ":3000",
			DBPath:   "~/.pong-arena/matches.db",
			LogLevel: "info",
		},
		Game: GameConfig{
			TickRate:      arena.DefaultTickRate,
			WinScore:      arena.DefaultWinScore,
			PaddleStep:    arena.DefaultPaddleStep,
			ServeSpeed:    arena.DefaultServeSpeed,
			MaxBallSpeed:  arena.DefaultMaxBallSpeed,
			SpeedUpFactor: arena.DefaultSpeedUpFactor,
			SpinFactor:    arena.DefaultSpinFactor,
		},
		AI: AIConfig{
			Easy:   AIProfile{ReactionDelay: 15, ErrorMargin: 60, Speed: 4},
			Medium: AIProfile{ReactionDelay: 8, ErrorMargin: 30, Speed: 6},
			Hard:   AIProfile{ReactionDelay: 3, ErrorMargin: 10, Speed: 8},
		},
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Server.Addr != ":3000" {
		t.Errorf("default addr = %q, want :3000", cfg.Server.Addr)
	}
	if cfg.Game.TickRate != 60 {
		t.Errorf("default tick rate = %d, want 60", cfg.Game.TickRate)
	}
	if cfg.Game.WinScore != 10 {
		t.Errorf("default win score = %d, want 10", cfg.Game.WinScore)
	}
	if cfg.Game.ServeSpeed != 9 || cfg.Game.MaxBallSpeed != 18 {
		t.Errorf("default ball speeds = %v/%v, want 9/18", cfg.Game.ServeSpeed, cfg.Game.MaxBallSpeed)
	}
	if cfg.Game.SpeedUpFactor != 1.05 || cfg.Game.SpinFactor != 1.5 {
		t.Errorf("default factors = %v/%v, want 1.05/1.5", cfg.Game.SpeedUpFactor, cfg.Game.SpinFactor)
	}
	if cfg.AI.Medium.ReactionDelay != 8 || cfg.AI.Medium.ErrorMargin != 30 || cfg.AI.Medium.Speed != 6 {
		t.Errorf("default medium AI = %+v", cfg.AI.Medium)
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in   string
		want Difficulty
	}{
		{"easy", DifficultyEasy},
		{"medium", DifficultyMedium},
		{"hard", DifficultyHard},
		{"", DifficultyMedium},
		{"nightmare", DifficultyMedium},
	}
	for _, tt := range tests {
		if got := ParseDifficulty(tt.in); got != tt.want {
			t.Errorf("ParseDifficulty(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestProfileSelection(t *testing.T) {
	cfg := Default()

	easy := cfg.AI.Profile(DifficultyEasy)
	hard := cfg.AI.Profile(DifficultyHard)
	if easy.ReactionDelay <= hard.ReactionDelay {
		t.Errorf("easy should react slower than hard: %d vs %d", easy.ReactionDelay, hard.ReactionDelay)
	}
	if easy.ErrorMargin <= hard.ErrorMargin {
		t.Errorf("easy should aim worse than hard: %v vs %v", easy.ErrorMargin, hard.ErrorMargin)
	}
	if easy.Speed >= hard.Speed {
		t.Errorf("easy should move slower than hard: %v vs %v", easy.Speed, hard.Speed)
	}

	if got := cfg.AI.Profile("unknown"); got != cfg.AI.Medium {
		t.Errorf("unknown difficulty = %+v, want medium", got)
	}
}

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if cfg.Game.TickRate != Default().Game.TickRate {
		t.Errorf("embedded tick rate = %d, want %d", cfg.Game.TickRate, Default().Game.TickRate)
	}
}

func TestLoadPartialFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pongd.yaml")
	content := "server:\n  addr: \":9999\"\ngame:\n  win_score: 5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) failed: %v", path, err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("addr = %q, want override :9999", cfg.Server.Addr)
	}
	if cfg.Game.WinScore != 5 {
		t.Errorf("win score = %d, want override 5", cfg.Game.WinScore)
	}
	// Fields absent from the file keep their defaults
	if cfg.Game.TickRate != 60 {
		t.Errorf("tick rate = %d, want default 60", cfg.Game.TickRate)
	}
	if cfg.AI.Hard.Speed != 8 {
		t.Errorf("hard AI speed = %v, want default 8", cfg.AI.Hard.Speed)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	if _, err := Load("/nonexistent/pongd.yaml"); err == nil {
		t.Error("Load of a missing explicit path should fail")
	}
}

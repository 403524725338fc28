package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BatchSize != 100 {
		t.Errorf("BatchSize = %d, want 100", cfg.BatchSize)
	}
	if cfg.MaxBatches != 0 {
		t.Errorf("MaxBatches = %d, want 0 (unbounded)", cfg.MaxBatches)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("Retry.MaxAttempts = %d, want 3", cfg.Retry.MaxAttempts)
	}
	if cfg.TokenBudget != 2000 {
		t.Errorf("TokenBudget = %d, want 2000", cfg.TokenBudget)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forumjudge.yaml")
	yaml := `
batchSize: 25
forums:
  - optimism
  - arbitrum
retry:
  maxAttempts: 5
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FORUMJUDGE_CONFIG", path)
	t.Setenv("FORUMJUDGE_BATCH_SIZE", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Env wins over file, file wins over defaults.
	if cfg.BatchSize != 50 {
		t.Errorf("BatchSize = %d, want 50 (env override)", cfg.BatchSize)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("Retry.MaxAttempts = %d, want 5 (from file)", cfg.Retry.MaxAttempts)
	}
	if len(cfg.Forums) != 2 || cfg.Forums[0] != "optimism" {
		t.Errorf("Forums = %v, want [optimism arbitrum]", cfg.Forums)
	}
}

func TestForumsFromEnv(t *testing.T) {
	t.Setenv("FORUMJUDGE_FORUMS", "uniswap, aave ,compound")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"uniswap", "aave", "compound"}
	if len(cfg.Forums) != len(want) {
		t.Fatalf("Forums = %v, want %v", cfg.Forums, want)
	}
	for i := range want {
		if cfg.Forums[i] != want[i] {
			t.Errorf("Forums[%d] = %q, want %q", i, cfg.Forums[i], want[i])
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

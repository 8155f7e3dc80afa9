package config

import (
	"testing"
	"time"
)

func TestFromEnv_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("H3_RES", "99")
	t.Setenv("GRID_WORKERS", "3")
	t.Setenv("LOG_CONSOLE", "yes")
	t.Setenv("COLUMN_TTL", "10m")
	t.Setenv("COLUMN_TTL_OVERRIDES", "tmp=1m, tmp_long=5m,bad,=3s")

	cfg := FromEnv()
	if cfg.H3Res != 8 {
		t.Fatalf("out of range H3_RES must fall back to 8, got %d", cfg.H3Res)
	}
	if cfg.Grid.Workers != 3 || !cfg.LogConsole {
		t.Fatalf("workers=%d console=%v", cfg.Grid.Workers, cfg.LogConsole)
	}
	if cfg.Addr != ":8090" || cfg.Metrics.Path != "/metrics" {
		t.Fatalf("addr=%q metrics path=%q", cfg.Addr, cfg.Metrics.Path)
	}

	cases := map[string]time.Duration{
		"tmp_long_x": 5 * time.Minute,
		"tmp_a":      time.Minute,
		"daily":      10 * time.Minute,
	}
	for name, want := range cases {
		if got := cfg.Store.TTLFor(name); got != want {
			t.Fatalf("TTLFor(%q)=%v want %v", name, got, want)
		}
	}
	if len(cfg.Store.TTLOverrides) != 2 {
		t.Fatalf("overrides=%v", cfg.Store.TTLOverrides)
	}
}

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.WorldSeed != "overworld" {
		t.Fatalf("WorldSeed = %q", cfg.WorldSeed)
	}
	if cfg.ViewRadius != 8 {
		t.Fatalf("ViewRadius = %d", cfg.ViewRadius)
	}
	if cfg.NarratorTimeout != 30*time.Second {
		t.Fatalf("NarratorTimeout = %v", cfg.NarratorTimeout)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("WORLD_SEED", "weekly-reset-7")
	t.Setenv("VIEW_RADIUS", "4")
	t.Setenv("JWT_TTL", "1h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.HTTPAddr != ":9000" || cfg.WorldSeed != "weekly-reset-7" || cfg.ViewRadius != 4 {
		t.Fatalf("env overrides ignored: %+v", cfg)
	}
	if cfg.JWTTTL != time.Hour {
		t.Fatalf("JWTTTL = %v", cfg.JWTTTL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("WORLD_SEED", "")
	if _, err := Load(); err == nil {
		t.Fatalf("empty WORLD_SEED accepted")
	}
}

func TestLoadRejectsNonPositiveViewRadius(t *testing.T) {
	t.Setenv("VIEW_RADIUS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("VIEW_RADIUS 0 accepted")
	}
}

func TestMalformedNumbersFallBackToDefaults(t *testing.T) {
	t.Setenv("VIEW_RADIUS", "not-a-number")
	t.Setenv("JWT_TTL", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.ViewRadius != 8 || cfg.JWTTTL != 12*time.Hour {
		t.Fatalf("malformed values did not fall back: %+v", cfg)
	}
}

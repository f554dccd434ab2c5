package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Dataset.Train.FragmentType != "dialog" {
		t.Fatalf("unexpected default fragment type %q", cfg.Dataset.Train.FragmentType)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[dataset.train]",
		`splits = ["train"]`,
		`fragment_type = "narration"`,
		"duration = 2.3",
		"jitter = true",
		"jitter_sd = 0.5",
		"target_width = 90",
		"target_height = 50",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	train := cfg.Dataset.Train
	if train.FragmentType != "narration" || !train.Jitter || train.TargetWidth != 90 {
		t.Fatalf("unexpected train variant: %+v", train)
	}
	// Untouched variants keep defaults.
	if cfg.Dataset.Val.Duration != 2.3 {
		t.Fatalf("unexpected val duration %v", cfg.Dataset.Val.Duration)
	}
}

func TestValidateRejectsBadSplit(t *testing.T) {
	cfg := Default()
	cfg.Dataset.Val.Splits = []string{"validation"}
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "unknown split") {
		t.Fatalf("expected unknown split error, got %v", err)
	}
}

func TestValidateRejectsBadPooling(t *testing.T) {
	cfg := Default()
	cfg.Model.AudioPooling = "max"
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "invalid pooling") {
		t.Fatalf("expected pooling error, got %v", err)
	}
}

func TestValidateRejectsJitterWithoutSD(t *testing.T) {
	cfg := Default()
	cfg.Dataset.Train.Jitter = true
	cfg.Dataset.Train.JitterSD = 0
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected jitter_sd error")
	}
}

func TestValidateRejectsBadNormalization(t *testing.T) {
	cfg := Default()
	cfg.Dataset.Normalization = "imagenet"
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected normalization error")
	}
}

func TestStatsPathFollowsNormalization(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	path, err := cfg.StatsPath()
	if err != nil {
		t.Fatalf("StatsPath: %v", err)
	}
	if filepath.Base(path) != "stats.json" {
		t.Fatalf("unexpected stats path %q", path)
	}
	cfg.Dataset.Normalization = "kinetics"
	path, err = cfg.StatsPath()
	if err != nil {
		t.Fatalf("StatsPath: %v", err)
	}
	if filepath.Base(path) != "kinetics-stats.json" {
		t.Fatalf("unexpected kinetics stats path %q", path)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config invalid: %v", err)
	}
}

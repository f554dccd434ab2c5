package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"clipmatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataRoot = filepath.Join(base, "data")
	cfgVal.Paths.CacheRoot = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ResultsDB = filepath.Join(base, "results.db")
	cfgVal.Paths.StatsFile = filepath.Join(base, "data", "stats.json")
	cfgVal.Paths.KineticsStatsFile = filepath.Join(base, "data", "kinetics-stats.json")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithNormalization sets the normalization mode on the test config.
func WithNormalization(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dataset.Normalization = mode
	}
}

// WithWorkers overrides the decode worker count on every variant.
func WithWorkers(workers int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dataset.Train.Workers = workers
		b.cfg.Dataset.Val.Workers = workers
		b.cfg.Dataset.Test.Workers = workers
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataRoot)
}

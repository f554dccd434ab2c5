package main

import (
	"path/filepath"
	"strings"
	"sync"

	"log/slog"

	"clipmatch/internal/clipcache"
	"clipmatch/internal/config"
	"clipmatch/internal/logging"
	"clipmatch/internal/media/clips"
	"clipmatch/internal/results"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{"stderr", filepath.Join(cfg.Paths.LogDir, "clipmatch.log")},
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) openResults() (*results.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return results.Open(cfg.Paths.ResultsDB)
}

// variantSettings maps one dataset variant onto the cache identity fields.
func variantSettings(variant config.DatasetVariant) clipcache.Settings {
	return clipcache.Settings{
		Splits:       variant.Splits,
		FragmentType: variant.FragmentType,
		TargetWidth:  variant.TargetWidth,
		TargetHeight: variant.TargetHeight,
		Duration:     variant.Duration,
		Jitter:       variant.Jitter,
		JitterSD:     variant.JitterSD,
	}
}

func variantCacheDir(cfg *config.Config, variant config.DatasetVariant) (string, error) {
	return clipcache.Dir(cfg.Paths.CacheRoot, variantSettings(variant), variant.CacheDir)
}

func newExtractor(cfg *config.Config, variant config.DatasetVariant, logger *slog.Logger) *clips.Extractor {
	return clips.NewExtractor(clips.Options{
		FFmpeg:       cfg.Extraction.FFmpeg,
		FFprobe:      cfg.Extraction.FFprobe,
		Duration:     variant.Duration,
		Jitter:       variant.Jitter,
		JitterSD:     variant.JitterSD,
		MinSeconds:   cfg.Extraction.MinClipSeconds,
		TargetWidth:  variant.TargetWidth,
		TargetHeight: variant.TargetHeight,
		SampleRate:   cfg.Extraction.SampleRate,
	}, logger)
}

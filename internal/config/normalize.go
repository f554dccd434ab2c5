package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeVariants(); err != nil {
		return err
	}
	c.normalizeExtraction()
	c.normalizeLogging()
	c.normalizeEval()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataRoot, err = expandPath(c.Paths.DataRoot); err != nil {
		return fmt.Errorf("paths.data_root: %w", err)
	}
	if c.Paths.CacheRoot, err = expandPath(c.Paths.CacheRoot); err != nil {
		return fmt.Errorf("paths.cache_root: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ResultsDB) == "" {
		c.Paths.ResultsDB = filepath.Join(c.Paths.LogDir, "results.db")
	} else if c.Paths.ResultsDB, err = expandPath(c.Paths.ResultsDB); err != nil {
		return fmt.Errorf("paths.results_db: %w", err)
	}
	if strings.TrimSpace(c.Paths.StatsFile) == "" {
		c.Paths.StatsFile = filepath.Join(c.Paths.DataRoot, "stats.json")
	} else if c.Paths.StatsFile, err = expandPath(c.Paths.StatsFile); err != nil {
		return fmt.Errorf("paths.stats_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.KineticsStatsFile) == "" {
		c.Paths.KineticsStatsFile = filepath.Join(c.Paths.DataRoot, "kinetics-stats.json")
	} else if c.Paths.KineticsStatsFile, err = expandPath(c.Paths.KineticsStatsFile); err != nil {
		return fmt.Errorf("paths.kinetics_stats_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeVariants() error {
	for role, variant := range map[string]*DatasetVariant{
		"train": &c.Dataset.Train,
		"val":   &c.Dataset.Val,
		"test":  &c.Dataset.Test,
	} {
		variant.FragmentType = strings.ToLower(strings.TrimSpace(variant.FragmentType))
		for i, split := range variant.Splits {
			variant.Splits[i] = strings.ToLower(strings.TrimSpace(split))
		}
		if variant.BatchSize <= 0 {
			variant.BatchSize = defaultBatchSize
		}
		if variant.Workers < 0 {
			variant.Workers = 0
		}
		if trimmed := strings.TrimSpace(variant.CacheDir); trimmed != "" {
			expanded, err := expandPath(trimmed)
			if err != nil {
				return fmt.Errorf("dataset.%s.cache_dir: %w", role, err)
			}
			variant.CacheDir = expanded
		} else {
			variant.CacheDir = ""
		}
	}
	c.Dataset.Normalization = strings.ToLower(strings.TrimSpace(c.Dataset.Normalization))
	if c.Dataset.Normalization == "" {
		c.Dataset.Normalization = defaultNormalization
	}
	return nil
}

func (c *Config) normalizeExtraction() {
	if strings.TrimSpace(c.Extraction.FFmpeg) == "" {
		c.Extraction.FFmpeg = defaultFFmpeg
	}
	if strings.TrimSpace(c.Extraction.FFprobe) == "" {
		c.Extraction.FFprobe = defaultFFprobe
	}
	if c.Extraction.SampleRate <= 0 {
		c.Extraction.SampleRate = defaultSampleRate
	}
	if c.Extraction.MinClipSeconds <= 0 {
		c.Extraction.MinClipSeconds = defaultMinClipSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}

func (c *Config) normalizeEval() {
	if c.Eval.RecallN <= 0 {
		c.Eval.RecallN = defaultRecallN
	}
	if c.Eval.ResampleSize <= 0 {
		c.Eval.ResampleSize = defaultResampleSize
	}
	if c.Eval.ResampleCount <= 0 {
		c.Eval.ResampleCount = defaultResampleCount
	}
	if c.Eval.TripletSamples <= 0 {
		c.Eval.TripletSamples = defaultTripletSamples
	}
	if c.Eval.DurationBucketMS <= 0 {
		c.Eval.DurationBucketMS = defaultBucketMS
	}
	if c.Eval.Seed == 0 {
		c.Eval.Seed = defaultSeed
	}
}

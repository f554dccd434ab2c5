package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataRoot          string `toml:"data_root"`
	CacheRoot         string `toml:"cache_root"`
	LogDir            string `toml:"log_dir"`
	ResultsDB         string `toml:"results_db"`
	StatsFile         string `toml:"stats_file"`
	KineticsStatsFile string `toml:"kinetics_stats_file"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Extraction contains external decoder configuration.
type Extraction struct {
	FFmpeg         string  `toml:"ffmpeg"`
	FFprobe        string  `toml:"ffprobe"`
	SampleRate     int     `toml:"sample_rate"`
	MinClipSeconds float64 `toml:"min_clip_seconds"`
}

// DatasetVariant configures one dataset split variant. The same fields feed
// the cache key, so two variants with equal values share a cache directory.
type DatasetVariant struct {
	Splits       []string `toml:"splits"`
	FragmentType string   `toml:"fragment_type"`
	Duration     float64  `toml:"duration"` // 0 means line-based segmentation
	Jitter       bool     `toml:"jitter"`
	JitterSD     float64  `toml:"jitter_sd"`
	TargetWidth  int      `toml:"target_width"`
	TargetHeight int      `toml:"target_height"`
	BatchSize    int      `toml:"batch_size"`
	Workers      int      `toml:"workers"`
	CacheDir     string   `toml:"cache_dir"` // explicit permanent cache; empty derives from hash
}

// Dataset groups the split variants plus normalization selection.
type Dataset struct {
	Normalization string         `toml:"normalization"`
	Train         DatasetVariant `toml:"train"`
	Val           DatasetVariant `toml:"val"`
	Test          DatasetVariant `toml:"test"`
}

// Model describes the encoder configuration handed to the external training
// framework. Only validated here; the encoders themselves live behind the
// encode.Encoder interface.
type Model struct {
	VideoBackbone   string `toml:"video_backbone"`
	VideoPooling    string `toml:"video_pooling"`
	AudioPooling    string `toml:"audio_pooling"`
	VideoPretrained bool   `toml:"video_pretrained"`
	AudioPretrained bool   `toml:"audio_pretrained"`
	EmbeddingDim    int    `toml:"embedding_dim"`
}

// Eval contains scoring parameters.
type Eval struct {
	RecallN          int   `toml:"recall_n"`
	ResampleSize     int   `toml:"resample_size"`
	ResampleCount    int   `toml:"resample_count"`
	TripletSamples   int   `toml:"triplet_samples"`
	DurationBucketMS int   `toml:"duration_bucket_ms"`
	Seed             int64 `toml:"seed"`
}

// Config is the root configuration shared by every command.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Logging    Logging    `toml:"logging"`
	Extraction Extraction `toml:"extraction"`
	Dataset    Dataset    `toml:"dataset"`
	Model      Model      `toml:"model"`
	Eval       Eval       `toml:"eval"`
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clipmatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// DefaultConfigPath returns the expanded default configuration location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipmatch/config.toml")
}

// EnsureDirectories creates the directories the pipeline writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheRoot, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Variant returns the dataset variant for the named role (train, val, test).
func (c *Config) Variant(role string) (DatasetVariant, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "train":
		return c.Dataset.Train, nil
	case "val":
		return c.Dataset.Val, nil
	case "test":
		return c.Dataset.Test, nil
	default:
		return DatasetVariant{}, fmt.Errorf("unknown dataset role %q", role)
	}
}

// StatsPath resolves the persisted normalization stats file for the
// configured normalization mode.
func (c *Config) StatsPath() (string, error) {
	switch c.Dataset.Normalization {
	case "dataset":
		return c.Paths.StatsFile, nil
	case "kinetics":
		return c.Paths.KineticsStatsFile, nil
	default:
		return "", fmt.Errorf("unsupported normalization type %q", c.Dataset.Normalization)
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

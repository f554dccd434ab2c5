package config

import (
	"errors"
	"fmt"
)

var (
	knownSplits        = map[string]struct{}{"train": {}, "val": {}, "test": {}}
	knownFragmentTypes = map[string]struct{}{"dialog": {}, "narration": {}}
	knownPoolingModes  = map[string]struct{}{"average": {}, "attention": {}, "last": {}}
	knownBackbones     = map[string]struct{}{"r3d_18": {}, "mc3_18": {}, "r2plus1d_18": {}}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validateModel(); err != nil {
		return err
	}
	if err := c.validateEval(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
}

func (c *Config) validateDataset() error {
	switch c.Dataset.Normalization {
	case "dataset", "kinetics":
	default:
		return fmt.Errorf("dataset.normalization must be dataset or kinetics, got %q", c.Dataset.Normalization)
	}
	for role, variant := range map[string]DatasetVariant{
		"train": c.Dataset.Train,
		"val":   c.Dataset.Val,
		"test":  c.Dataset.Test,
	} {
		if err := validateVariant(role, variant); err != nil {
			return err
		}
	}
	return nil
}

func validateVariant(role string, v DatasetVariant) error {
	if len(v.Splits) == 0 {
		return fmt.Errorf("dataset.%s.splits must not be empty", role)
	}
	for _, split := range v.Splits {
		if _, ok := knownSplits[split]; !ok {
			return fmt.Errorf("dataset.%s.splits: unknown split %q", role, split)
		}
	}
	if _, ok := knownFragmentTypes[v.FragmentType]; !ok {
		return fmt.Errorf("dataset.%s.fragment_type must be dialog or narration, got %q", role, v.FragmentType)
	}
	if v.Duration < 0 {
		return fmt.Errorf("dataset.%s.duration must not be negative", role)
	}
	if v.Jitter && v.JitterSD <= 0 {
		return fmt.Errorf("dataset.%s.jitter_sd must be positive when jitter is enabled", role)
	}
	if v.TargetWidth <= 0 || v.TargetHeight <= 0 {
		return fmt.Errorf("dataset.%s target resolution must be positive", role)
	}
	return nil
}

func (c *Config) validateModel() error {
	if _, ok := knownBackbones[c.Model.VideoBackbone]; !ok {
		return fmt.Errorf("model.video_backbone: invalid version %q", c.Model.VideoBackbone)
	}
	if _, ok := knownPoolingModes[c.Model.VideoPooling]; !ok {
		return fmt.Errorf("model.video_pooling: invalid pooling %q", c.Model.VideoPooling)
	}
	if _, ok := knownPoolingModes[c.Model.AudioPooling]; !ok {
		return fmt.Errorf("model.audio_pooling: invalid pooling %q", c.Model.AudioPooling)
	}
	if c.Model.EmbeddingDim <= 0 {
		return errors.New("model.embedding_dim must be positive")
	}
	return nil
}

func (c *Config) validateEval() error {
	if c.Eval.ResampleSize > 0 && c.Eval.RecallN > c.Eval.ResampleSize {
		return fmt.Errorf("eval.recall_n (%d) must not exceed eval.resample_size (%d)", c.Eval.RecallN, c.Eval.ResampleSize)
	}
	return nil
}

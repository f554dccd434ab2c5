package config

const (
	defaultDataRoot       = "~/data/out"
	defaultCacheRoot      = "~/.cache/clipmatch"
	defaultLogDir         = "~/.local/share/clipmatch/logs"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultFFmpeg         = "ffmpeg"
	defaultFFprobe        = "ffprobe"
	defaultSampleRate     = 44100
	defaultMinClipSeconds = 0.2
	defaultFragmentType   = "dialog"
	defaultDuration       = 3.2
	defaultEvalDuration   = 2.3
	defaultJitterSD       = 0.5
	defaultTargetWidth    = 180
	defaultTargetHeight   = 100
	defaultBatchSize      = 8
	defaultNormalization  = "dataset"
	defaultVideoBackbone  = "r3d_18"
	defaultPooling        = "average"
	defaultEmbeddingDim   = 512
	defaultRecallN        = 10
	defaultResampleSize   = 100
	defaultResampleCount  = 500
	defaultTripletSamples = 500
	defaultBucketMS       = 100
	defaultSeed           = 666
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataRoot:  defaultDataRoot,
			CacheRoot: defaultCacheRoot,
			LogDir:    defaultLogDir,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Extraction: Extraction{
			FFmpeg:         defaultFFmpeg,
			FFprobe:        defaultFFprobe,
			SampleRate:     defaultSampleRate,
			MinClipSeconds: defaultMinClipSeconds,
		},
		Dataset: Dataset{
			Normalization: defaultNormalization,
			Train: DatasetVariant{
				Splits:       []string{"train"},
				FragmentType: defaultFragmentType,
				Duration:     defaultDuration,
				JitterSD:     defaultJitterSD,
				TargetWidth:  defaultTargetWidth,
				TargetHeight: defaultTargetHeight,
				BatchSize:    defaultBatchSize,
			},
			Val: DatasetVariant{
				Splits:       []string{"val"},
				FragmentType: defaultFragmentType,
				Duration:     defaultEvalDuration,
				JitterSD:     defaultJitterSD,
				TargetWidth:  defaultTargetWidth,
				TargetHeight: defaultTargetHeight,
				BatchSize:    defaultBatchSize,
			},
			Test: DatasetVariant{
				Splits:       []string{"test"},
				FragmentType: "narration",
				Duration:     defaultEvalDuration,
				JitterSD:     defaultJitterSD,
				TargetWidth:  defaultTargetWidth,
				TargetHeight: defaultTargetHeight,
				BatchSize:    defaultBatchSize,
			},
		},
		Model: Model{
			VideoBackbone:   defaultVideoBackbone,
			VideoPooling:    defaultPooling,
			AudioPooling:    defaultPooling,
			VideoPretrained: true,
			AudioPretrained: true,
			EmbeddingDim:    defaultEmbeddingDim,
		},
		Eval: Eval{
			RecallN:          defaultRecallN,
			ResampleSize:     defaultResampleSize,
			ResampleCount:    defaultResampleCount,
			TripletSamples:   defaultTripletSamples,
			DurationBucketMS: defaultBucketMS,
			Seed:             defaultSeed,
		},
	}
}

package clips

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"log/slog"

	"clipmatch/internal/logging"
	"clipmatch/internal/media/ffprobe"
	"clipmatch/internal/services"
)

// ErrEmptyClip marks a window that decoded to zero frames. Callers skip the
// clip and continue the enclosing iteration.
var ErrEmptyClip = errors.New("clip decoded zero frames")

// Options configures extraction for one dataset variant.
type Options struct {
	FFmpeg       string
	FFprobe      string
	Duration     float64 // 0 selects line-based segmentation via sidecar metadata
	Jitter       bool
	JitterSD     float64
	MinSeconds   float64
	TargetWidth  int
	TargetHeight int
	SampleRate   int
}

// Window is a [Start,End) interval in seconds within a source video.
type Window struct {
	Start float64
	End   float64
}

// Duration returns the window length in seconds.
func (w Window) Duration() float64 {
	return w.End - w.Start
}

// Extractor segments source videos into clip windows and materializes them
// as decoded tensors or encoded sub-clip files.
type Extractor struct {
	opts   Options
	logger *slog.Logger
}

// NewExtractor builds an extractor. A nil logger silences output.
func NewExtractor(opts Options, logger *slog.Logger) *Extractor {
	if strings.TrimSpace(opts.FFmpeg) == "" {
		opts.FFmpeg = "ffmpeg"
	}
	if strings.TrimSpace(opts.FFprobe) == "" {
		opts.FFprobe = "ffprobe"
	}
	return &Extractor{opts: opts, logger: logging.NewComponentLogger(logger, "clips")}
}

// FFmpeg returns the configured ffmpeg binary.
func (e *Extractor) FFmpeg() string {
	return e.opts.FFmpeg
}

// Windows computes the clip windows for the given source video. Fixed-duration
// segmentation yields contiguous non-overlapping windows, optionally jittered;
// zero duration switches to line-based segmentation from the sidecar file.
// rng is only consulted when jitter is enabled.
func (e *Extractor) Windows(ctx context.Context, src string, rng *rand.Rand) ([]Window, error) {
	if e.opts.Duration == 0 {
		meta, err := LoadSidecar(SidecarPath(src))
		if err != nil {
			return nil, err
		}
		return meta.Windows(), nil
	}

	probe, err := ffprobe.Inspect(ctx, e.opts.FFprobe, src)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "clips", "probe", src, err)
	}
	total := probe.DurationSeconds()
	if total <= 0 {
		return nil, services.Wrap(services.ErrValidation, "clips", "probe", fmt.Sprintf("source %s has no duration", src), nil)
	}
	return e.fixedWindows(total, rng), nil
}

func (e *Extractor) fixedWindows(total float64, rng *rand.Rand) []Window {
	duration := e.opts.Duration
	var windows []Window
	for start := 0.0; start < total; start += duration {
		end := start + duration
		if end > total {
			end = total
		}
		if end-start < e.opts.MinSeconds {
			break
		}
		w := Window{Start: start, End: end}
		if e.opts.Jitter && rng != nil {
			w = jitterWindow(w, total, e.opts.JitterSD, rng)
		}
		windows = append(windows, w)
	}
	return windows
}

// jitterWindow shifts the window start by a normal perturbation, clipped so
// the window stays inside the source.
func jitterWindow(w Window, total, sd float64, rng *rand.Rand) Window {
	length := w.Duration()
	start := w.Start + rng.NormFloat64()*sd
	if start < 0 {
		start = 0
	}
	if start+length > total {
		start = total - length
	}
	if start < 0 {
		start = 0
	}
	return Window{Start: start, End: start + length}
}

// Materialize decodes the window into a video and audio tensor pair. A window
// with zero decoded frames returns ErrEmptyClip.
func (e *Extractor) Materialize(ctx context.Context, src string, w Window) (Clip, error) {
	video, frames, err := DecodeVideo(ctx, e.opts.FFmpeg, src, w, e.opts.TargetWidth, e.opts.TargetHeight)
	if err != nil {
		return Clip{}, err
	}
	if frames == 0 {
		return Clip{}, fmt.Errorf("%w: %s [%.2f,%.2f)", ErrEmptyClip, src, w.Start, w.End)
	}
	audio, err := DecodeAudio(ctx, e.opts.FFmpeg, src, w, e.opts.SampleRate)
	if err != nil {
		return Clip{}, err
	}
	e.logger.Debug("materialized clip",
		logging.String("source", src),
		logging.Float64("start", w.Start),
		logging.Float64("duration", w.Duration()),
		logging.Int("frames", frames),
	)
	return Clip{
		Video:    video,
		Audio:    audio,
		Duration: w.Duration(),
		Filename: src,
		Offset:   w.Start,
	}, nil
}

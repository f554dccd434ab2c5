package clipcache

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"log/slog"

	"github.com/gofrs/flock"

	"clipmatch/internal/logging"
	"clipmatch/internal/media/clips"
	"clipmatch/internal/media/ffprobe"
	"clipmatch/internal/services"
)

// Populator extracts clips from source videos into a cache directory.
type Populator struct {
	extractor *clips.Extractor
	ffprobe   string
	logger    *slog.Logger
}

// NewPopulator builds a populator around the given extractor. ffprobeBinary
// is used to verify that each cut clip actually decoded frames.
func NewPopulator(extractor *clips.Extractor, ffprobeBinary string, logger *slog.Logger) *Populator {
	return &Populator{
		extractor: extractor,
		ffprobe:   ffprobeBinary,
		logger:    logging.NewComponentLogger(logger, "clipcache"),
	}
}

// Ensure loads the manifest for the settings, populating the cache first
// when it is missing and populate is true. Sources must already be sorted
// deterministically; the manifest order follows the source order.
func (p *Populator) Ensure(ctx context.Context, dir string, settings Settings, sources []string, populate bool, rng *rand.Rand) (Manifest, error) {
	manifest, err := Load(dir)
	if err == nil {
		return manifest, nil
	}
	if !services.Fatal(err) {
		return Manifest{}, err
	}
	if !populate {
		return Manifest{}, err
	}
	if err := p.Populate(ctx, dir, settings, sources, rng); err != nil {
		return Manifest{}, err
	}
	return Load(dir)
}

// Populate runs extraction over all sources and persists each clip plus the
// manifest and settings. A flock serializes concurrent producers computing
// the same cache key; the manifest is written last and atomically, so an
// interrupted population never leaves a readable partial manifest.
func (p *Populator) Populate(ctx context.Context, dir string, settings Settings, sources []string, rng *rand.Rand) error {
	if err := os.MkdirAll(filepath.Join(dir, clipsSubdir), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "clipcache", "populate", "create cache directory", err)
	}

	lock := flock.New(filepath.Join(dir, populateLockName))
	locked, err := lock.TryLockContext(ctx, 0)
	if err != nil || !locked {
		return services.Wrap(services.ErrTransient, "clipcache", "populate",
			fmt.Sprintf("cache %s is being populated by another process", dir), err)
	}
	defer func() { _ = lock.Unlock() }()

	// Another producer may have finished while we waited for the lock.
	if _, err := Load(dir); err == nil {
		p.logger.Info("cache already populated", logging.String("cache_dir", dir))
		return nil
	}

	var manifest Manifest
	skipped := 0
	for _, src := range sources {
		windows, err := p.extractor.Windows(ctx, src, rng)
		if err != nil {
			return err
		}
		for _, w := range windows {
			name := fmt.Sprintf("%06d%s", manifest.Len(), filepath.Ext(src))
			dest := filepath.Join(dir, clipsSubdir, name)
			if err := clips.CutClip(ctx, p.extractor.FFmpeg(), src, w, settings.TargetWidth, settings.TargetHeight, dest); err != nil {
				return err
			}
			frames, err := p.verifyFrames(ctx, dest)
			if err != nil {
				return err
			}
			if frames == 0 {
				// Zero-frame clips are rejected and excluded from the cache.
				_ = os.Remove(dest)
				skipped++
				p.logger.Warn("skipping empty clip",
					logging.String("source", src),
					logging.Float64("offset", w.Start),
					logging.String(logging.FieldEventType, "clip_empty"),
					logging.String(logging.FieldErrorHint, "source window decoded zero frames"),
				)
				continue
			}
			manifest.Entries = append(manifest.Entries, ClipInfo{
				Path:     filepath.Join(clipsSubdir, name),
				Filename: src,
				Offset:   w.Start,
				Duration: w.Duration(),
			})
		}
	}

	if err := saveSettings(dir, settings); err != nil {
		return err
	}
	if err := manifest.Save(dir); err != nil {
		return err
	}
	p.logger.Info("populated clip cache",
		logging.String("cache_dir", dir),
		logging.Int("clips", manifest.Len()),
		logging.Int("skipped", skipped),
		logging.Int("sources", len(sources)),
	)
	return nil
}

// verifyFrames probes a cut clip and reports its decoded frame count
// estimate; zero means the clip carries no video.
func (p *Populator) verifyFrames(ctx context.Context, path string) (int, error) {
	probe, err := ffprobe.Inspect(ctx, p.ffprobe, path)
	if err != nil {
		return 0, err
	}
	stream, ok := probe.VideoStream()
	if !ok {
		return 0, nil
	}
	duration := probe.DurationSeconds()
	fps := stream.FrameRate()
	if duration <= 0 || fps <= 0 {
		return 0, nil
	}
	return int(duration * fps), nil
}

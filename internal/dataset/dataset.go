package dataset

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"log/slog"

	"clipmatch/internal/clipcache"
	"clipmatch/internal/logging"
	"clipmatch/internal/media/clips"
	"clipmatch/internal/stats"
	"clipmatch/internal/tensor"
)

// Pair is a positive video-audio example. True positives are self-matches:
// the only positive for a clip is its own audio, so both indices are equal.
type Pair struct {
	Video    tensor.Tensor
	Audio    tensor.Tensor
	VideoIdx int
	AudioIdx int
}

// LoaderOptions configures how cached clips are read back into tensors.
type LoaderOptions struct {
	Workers int
	Norm    *stats.Stats
}

// Loader reconstructs clip tensors on demand from a populated cache. It
// holds only indices and paths; the cache directory owns the data.
type Loader struct {
	dir       string
	manifest  clipcache.Manifest
	extractor *clips.Extractor
	opts      LoaderOptions
	logger    *slog.Logger
}

// NewLoader builds a loader over a populated cache directory. The extractor
// must carry the same decode settings the cache was populated with.
func NewLoader(dir string, manifest clipcache.Manifest, extractor *clips.Extractor, opts LoaderOptions, logger *slog.Logger) *Loader {
	return &Loader{
		dir:       dir,
		manifest:  manifest,
		extractor: extractor,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "dataset"),
	}
}

// Len returns the number of cached clips behind the loader.
func (l *Loader) Len() int {
	return l.manifest.Len()
}

type fileGroup struct {
	filename string
	first    int // manifest index of the group's first entry
	entries  []clipcache.ClipInfo
}

// fileGroups splits the manifest into per-source groups. Manifest order is
// deterministic, so group order is too.
func (l *Loader) fileGroups() []fileGroup {
	var groups []fileGroup
	for i, entry := range l.manifest.Entries {
		n := len(groups)
		if n == 0 || groups[n-1].filename != entry.Filename {
			groups = append(groups, fileGroup{filename: entry.Filename, first: i})
			n++
		}
		groups[n-1].entries = append(groups[n-1].entries, entry)
	}
	return groups
}

// Clips decodes every cached clip back into tensors. With workers > 1 the
// source-file groups are partitioned into disjoint contiguous slices, one
// per worker; results are reassembled in manifest order so parallel and
// sequential iteration agree.
func (l *Loader) Clips(ctx context.Context) ([]clips.Clip, error) {
	groups := l.fileGroups()
	if len(groups) == 0 {
		return nil, nil
	}

	results := make([][]clips.Clip, len(groups))
	ranges := Partition(len(groups), l.opts.Workers)
	if len(ranges) == 1 {
		for g := ranges[0].Start; g < ranges[0].End; g++ {
			decoded, err := l.decodeGroup(ctx, groups[g])
			if err != nil {
				return nil, err
			}
			results[g] = decoded
		}
	} else {
		var wg sync.WaitGroup
		errs := make([]error, len(ranges))
		for w, r := range ranges {
			wg.Add(1)
			go func(w int, r Range) {
				defer wg.Done()
				for g := r.Start; g < r.End; g++ {
					decoded, err := l.decodeGroup(ctx, groups[g])
					if err != nil {
						errs[w] = err
						return
					}
					results[g] = decoded
				}
			}(w, r)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}

	var out []clips.Clip
	for _, decoded := range results {
		out = append(out, decoded...)
	}
	return out, nil
}

func (l *Loader) decodeGroup(ctx context.Context, group fileGroup) ([]clips.Clip, error) {
	out := make([]clips.Clip, 0, len(group.entries))
	for i, entry := range group.entries {
		clip, err := l.decodeEntry(ctx, group.first+i, entry)
		if err != nil {
			if errors.Is(err, clips.ErrEmptyClip) {
				l.logger.Warn("skipping clip with zero frames",
					logging.String("path", entry.Path),
					logging.String(logging.FieldEventType, "clip_empty"),
					logging.String(logging.FieldErrorHint, "repopulate the cache if this persists"),
				)
				continue
			}
			return nil, err
		}
		out = append(out, clip)
	}
	return out, nil
}

func (l *Loader) decodeEntry(ctx context.Context, index int, entry clipcache.ClipInfo) (clips.Clip, error) {
	path := filepath.Join(l.dir, entry.Path)
	clip, err := l.extractor.Materialize(ctx, path, clips.Window{Start: 0, End: entry.Duration})
	if err != nil {
		return clips.Clip{}, err
	}
	if l.opts.Norm != nil {
		if err := l.opts.Norm.NormalizeVideo(clip.Video); err != nil {
			return clips.Clip{}, err
		}
		if err := l.opts.Norm.NormalizeAudio(clip.Audio); err != nil {
			return clips.Clip{}, err
		}
	}
	// The manifest, not the cached file path, carries the clip identity.
	clip.Duration = entry.Duration
	clip.Filename = entry.Filename
	clip.Offset = entry.Offset
	clip.Index = index
	l.logger.Debug("loaded clip",
		logging.String("file", entry.Filename),
		logging.Int("frames", clip.Frames()),
		logging.Int("samples", clip.Samples()),
	)
	return clip, nil
}

// Pairs emits the positive pairs for a clip sequence: clips are grouped by
// source filename and each clip is paired with its own audio. Indices are
// positions within the group.
func Pairs(items []clips.Clip) []Pair {
	var pairs []Pair
	start := 0
	for start < len(items) {
		end := start
		for end < len(items) && items[end].Filename == items[start].Filename {
			end++
		}
		for i, item := range items[start:end] {
			pairs = append(pairs, Pair{
				Video:    item.Video,
				Audio:    item.Audio,
				VideoIdx: i,
				AudioIdx: i,
			})
		}
		start = end
	}
	return pairs
}

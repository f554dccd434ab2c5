package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"clipmatch/internal/services"
)

// splitRange is an inclusive [First, Last] episode interval.
type splitRange struct {
	First int
	Last  int
}

// splitEpisodes maps split names to their episode ranges. The assignment is
// part of the dataset contract: changing it silently invalidates every
// derived cache.
var splitEpisodes = map[string]splitRange{
	"train": {First: 1, Last: 196},
	"val":   {First: 197, Last: 202},
	"test":  {First: 203, Last: 209},
}

// Episodes returns the episode IDs belonging to a split in ascending order.
func Episodes(split string) ([]int, error) {
	r, ok := splitEpisodes[split]
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "dataset", "episodes",
			fmt.Sprintf("unknown split %q", split), nil)
	}
	ids := make([]int, 0, r.Last-r.First+1)
	for id := r.First; id <= r.Last; id++ {
		ids = append(ids, id)
	}
	return ids, nil
}

// Layout describes where source videos live for one dataset variant.
type Layout struct {
	DataRoot     string
	FragmentType string
	TargetWidth  int
	TargetHeight int
}

// fragmentRoot resolves the directory holding a fragment type's episodes,
// preferring the resolution-qualified layout when it exists.
func (l Layout) fragmentRoot() string {
	qualified := filepath.Join(l.DataRoot, fmt.Sprintf("%dx%d", l.TargetWidth, l.TargetHeight), l.FragmentType)
	if info, err := os.Stat(qualified); err == nil && info.IsDir() {
		return qualified
	}
	return filepath.Join(l.DataRoot, l.FragmentType)
}

// Discover lists every source video for the given splits in a deterministic
// order: splits in the given order, episodes ascending, filenames sorted
// within each episode. Worker partitioning depends on this ordering.
func Discover(layout Layout, splits []string) ([]string, error) {
	root := layout.fragmentRoot()
	var sources []string
	for _, split := range splits {
		ids, err := Episodes(split)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			pattern := filepath.Join(root, fmt.Sprintf("%d", id), "*.avi")
			matches, err := filepath.Glob(pattern)
			if err != nil {
				return nil, services.Wrap(services.ErrTransient, "dataset", "discover", pattern, err)
			}
			sort.Strings(matches)
			sources = append(sources, matches...)
		}
	}
	return sources, nil
}

package clipcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sys/unix"
)

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

// Usage describes current cache disk usage.
type Usage struct {
	Entries    []EntrySummary `json:"entries"`
	TotalBytes int64          `json:"total_bytes"`
	FreeBytes  uint64         `json:"free_bytes"`
	FreeRatio  float64        `json:"free_ratio"`
}

// EntrySummary surfaces human-friendly details about one cache directory so
// the CLI can show which configurations are currently materialized.
type EntrySummary struct {
	Directory  string    `json:"directory"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
	ClipCount  int       `json:"clip_count"`
	Settings   *Settings `json:"settings,omitempty"`
}

// Stat scans the cache root and reports per-entry and filesystem usage.
func Stat(root string) (Usage, error) {
	return statWith(root, realStatfs)
}

func statWith(root string, statfs statfsFunc) (Usage, error) {
	var usage Usage
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return usage, nil
		}
		return usage, fmt.Errorf("clipcache: list root: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		size, mtime, err := dirSizeAndTime(dir)
		if err != nil {
			continue
		}
		summary := EntrySummary{Directory: dir, SizeBytes: size, ModifiedAt: mtime}
		if manifest, err := Load(dir); err == nil {
			summary.ClipCount = manifest.Len()
		}
		if settings, err := LoadSettings(dir); err == nil {
			summary.Settings = &settings
		}
		usage.Entries = append(usage.Entries, summary)
		usage.TotalBytes += size
	}
	sort.Slice(usage.Entries, func(i, j int) bool {
		return usage.Entries[i].ModifiedAt.After(usage.Entries[j].ModifiedAt)
	})

	total, free, err := statfs(root)
	if err != nil {
		return usage, fmt.Errorf("clipcache: statfs: %w", err)
	}
	usage.FreeBytes = free
	usage.FreeRatio = 1.0
	if total > 0 {
		usage.FreeRatio = float64(free) / float64(total)
	}
	return usage, nil
}

// Clear removes a cache directory entirely.
func Clear(dir string) error {
	if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clipcache: clear %q: %w", dir, err)
	}
	return nil
}

func dirSizeAndTime(path string) (int64, time.Time, error) {
	var (
		size   int64
		latest time.Time
	)
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return 0, time.Time{}, err
	}
	return size, latest, nil
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}

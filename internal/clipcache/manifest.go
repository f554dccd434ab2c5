package clipcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"clipmatch/internal/fileutil"
	"clipmatch/internal/services"
)

// ClipInfo is the persisted metadata for one cached clip.
type ClipInfo struct {
	Path     string  `json:"path"`
	Filename string  `json:"filename"`
	Offset   float64 `json:"offset"`
	Duration float64 `json:"duration"`
}

// Manifest is the ordered index-to-clip mapping for a populated cache.
type Manifest struct {
	Entries []ClipInfo
}

// Len returns the number of cached clips.
func (m Manifest) Len() int {
	return len(m.Entries)
}

// Load reads a cache manifest. A missing manifest yields ErrNotFound;
// callers that are allowed to populate fall back to extraction, everyone
// else surfaces the error.
func Load(dir string) (Manifest, error) {
	payload, err := os.ReadFile(filepath.Join(dir, manifestFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, services.Wrap(services.ErrNotFound, "clipcache", "load",
				fmt.Sprintf("cache %s has no manifest", dir), nil)
		}
		return Manifest{}, services.Wrap(services.ErrTransient, "clipcache", "load", dir, err)
	}
	var mapping map[string]ClipInfo
	if err := json.Unmarshal(payload, &mapping); err != nil {
		return Manifest{}, services.Wrap(services.ErrTransient, "clipcache", "load",
			fmt.Sprintf("cache %s manifest malformed", dir), err)
	}
	entries := make([]ClipInfo, len(mapping))
	for key, info := range mapping {
		index, err := strconv.Atoi(key)
		if err != nil || index < 0 || index >= len(mapping) {
			return Manifest{}, services.Wrap(services.ErrTransient, "clipcache", "load",
				fmt.Sprintf("cache %s manifest has invalid index %q", dir, key), nil)
		}
		entries[index] = info
	}
	return Manifest{Entries: entries}, nil
}

// Save writes the manifest atomically so readers never observe a partial
// mapping. Indices are the string form of each entry's position.
func (m Manifest) Save(dir string) error {
	mapping := make(map[string]ClipInfo, len(m.Entries))
	for i, info := range m.Entries {
		mapping[strconv.Itoa(i)] = info
	}
	payload, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("clipcache: encode manifest: %w", err)
	}
	return writeFileAtomic(dir, manifestFileName, payload)
}

// LoadSettings reads the settings.json recorded alongside a manifest.
func LoadSettings(dir string) (Settings, error) {
	payload, err := os.ReadFile(filepath.Join(dir, settingsFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, services.Wrap(services.ErrNotFound, "clipcache", "settings",
				fmt.Sprintf("cache %s has no settings", dir), nil)
		}
		return Settings{}, services.Wrap(services.ErrTransient, "clipcache", "settings", dir, err)
	}
	var settings Settings
	if err := json.Unmarshal(payload, &settings); err != nil {
		return Settings{}, services.Wrap(services.ErrTransient, "clipcache", "settings", dir, err)
	}
	return settings, nil
}

func saveSettings(dir string, settings Settings) error {
	payload, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("clipcache: encode settings: %w", err)
	}
	return writeFileAtomic(dir, settingsFileName, payload)
}

func writeFileAtomic(dir, name string, payload []byte) error {
	if err := fileutil.WriteFileAtomic(filepath.Join(dir, name), payload, 0o644); err != nil {
		return fmt.Errorf("clipcache: write %s: %w", name, err)
	}
	return nil
}

package clips

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clipmatch/internal/services"
)

// Line is one utterance interval from a sidecar metadata file.
type Line struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text,omitempty"`
}

// Sidecar is the per-video metadata file used for line-based segmentation.
type Sidecar struct {
	Lines []Line `json:"lines"`
}

// SidecarPath derives the metadata path for a source video: the same base
// name with a .json extension.
func SidecarPath(src string) string {
	ext := filepath.Ext(src)
	return strings.TrimSuffix(src, ext) + ".json"
}

// LoadSidecar reads and validates a sidecar metadata file. A missing file is
// a configuration error: line-based segmentation cannot proceed without it.
func LoadSidecar(path string) (Sidecar, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Sidecar{}, services.Wrap(services.ErrConfiguration, "clips", "sidecar", fmt.Sprintf("metadata file %s missing", path), nil)
		}
		return Sidecar{}, services.Wrap(services.ErrTransient, "clips", "sidecar", path, err)
	}
	var meta Sidecar
	if err := json.Unmarshal(payload, &meta); err != nil {
		return Sidecar{}, services.Wrap(services.ErrConfiguration, "clips", "sidecar", fmt.Sprintf("metadata file %s malformed", path), err)
	}
	for i, line := range meta.Lines {
		if line.End <= line.Start {
			return Sidecar{}, services.Wrap(services.ErrConfiguration, "clips", "sidecar",
				fmt.Sprintf("metadata file %s line %d has non-positive duration", path, i), nil)
		}
	}
	return meta, nil
}

// Windows converts the sidecar lines into clip windows, one per interval.
func (s Sidecar) Windows() []Window {
	windows := make([]Window, 0, len(s.Lines))
	for _, line := range s.Lines {
		windows = append(windows, Window{Start: line.Start, End: line.End})
	}
	return windows
}

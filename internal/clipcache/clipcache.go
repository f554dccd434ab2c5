package clipcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

const (
	manifestFileName = "manifest.json"
	settingsFileName = "settings.json"
	populateLockName = ".populate.lock"
	clipsSubdir      = "clips"
	keyPrefixLen     = 16
)

// Settings is the dataset configuration mapping that identifies a cache.
// Identical settings always resolve to the same cache directory.
type Settings struct {
	Splits       []string `json:"splits"`
	FragmentType string   `json:"fragment_type"`
	TargetWidth  int      `json:"target_width"`
	TargetHeight int      `json:"target_height"`
	Duration     float64  `json:"duration"`
	Jitter       bool     `json:"jitter"`
	JitterSD     float64  `json:"jitter_sd"`
}

// Key computes the stable content hash of the settings. The JSON mapping is
// canonicalized with sorted keys before hashing so the result is a pure
// function of the values, independent of field or key order.
func (s Settings) Key() (string, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("clipcache: encode settings: %w", err)
	}
	var mapping map[string]any
	if err := json.Unmarshal(payload, &mapping); err != nil {
		return "", fmt.Errorf("clipcache: decode settings: %w", err)
	}
	canonical, err := canonicalJSON(mapping)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Dir resolves the cache directory for the settings under root. A non-empty
// fixed path overrides derivation for permanent caches.
func Dir(root string, settings Settings, fixed string) (string, error) {
	if trimmed := strings.TrimSpace(fixed); trimmed != "" {
		return trimmed, nil
	}
	key, err := settings.Key()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, key[:keyPrefixLen]), nil
}

// canonicalJSON renders a JSON value with object keys emitted in sorted
// order, recursively.
func canonicalJSON(value any) ([]byte, error) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			keyJSON, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			b.Write(keyJSON)
			b.WriteByte(':')
			valJSON, err := canonicalJSON(v[k])
			if err != nil {
				return nil, err
			}
			b.Write(valJSON)
		}
		b.WriteByte('}')
		return []byte(b.String()), nil
	case []any:
		var b strings.Builder
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			itemJSON, err := canonicalJSON(item)
			if err != nil {
				return nil, err
			}
			b.Write(itemJSON)
		}
		b.WriteByte(']')
		return []byte(b.String()), nil
	default:
		return json.Marshal(v)
	}
}

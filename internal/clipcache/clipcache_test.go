package clipcache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"clipmatch/internal/services"
)

func testSettings() Settings {
	return Settings{
		Splits:       []string{"val"},
		FragmentType: "dialog",
		TargetWidth:  180,
		TargetHeight: 100,
		Duration:     2.3,
		Jitter:       false,
		JitterSD:     0,
	}
}

func TestKeyIsDeterministic(t *testing.T) {
	a, err := testSettings().Key()
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	b, err := testSettings().Key()
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if a != b {
		t.Fatalf("identical settings produced different keys: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestKeyChangesWithSettings(t *testing.T) {
	base, _ := testSettings().Key()

	jittered := testSettings()
	jittered.Jitter = true
	other, _ := jittered.Key()
	if base == other {
		t.Fatal("jitter flag must change the cache key")
	}

	resized := testSettings()
	resized.TargetWidth = 90
	other, _ = resized.Key()
	if base == other {
		t.Fatal("target resolution must change the cache key")
	}
}

func TestCanonicalJSONSortsKeys(t *testing.T) {
	a, err := canonicalJSON(map[string]any{"b": 1.0, "a": []any{map[string]any{"z": true, "y": "v"}}})
	if err != nil {
		t.Fatalf("canonicalJSON: %v", err)
	}
	want := `{"a":[{"y":"v","z":true}],"b":1}`
	if string(a) != want {
		t.Fatalf("canonical form = %s, want %s", a, want)
	}
}

func TestDirDerivesFromKey(t *testing.T) {
	dir, err := Dir("/cache", testSettings(), "")
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	key, _ := testSettings().Key()
	if dir != filepath.Join("/cache", key[:keyPrefixLen]) {
		t.Fatalf("unexpected derived dir %q", dir)
	}
}

func TestDirHonorsFixedPath(t *testing.T) {
	dir, err := Dir("/cache", testSettings(), "/permanent/val-dialog")
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if dir != "/permanent/val-dialog" {
		t.Fatalf("unexpected fixed dir %q", dir)
	}
}

func TestManifestRoundTripPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	manifest := Manifest{Entries: []ClipInfo{
		{Path: "clips/000000.avi", Filename: "a.avi", Offset: 0, Duration: 2.3},
		{Path: "clips/000001.avi", Filename: "a.avi", Offset: 2.3, Duration: 2.3},
		{Path: "clips/000002.avi", Filename: "b.avi", Offset: 0, Duration: 1.7},
	}}
	if err := manifest.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", loaded.Len())
	}
	for i, entry := range loaded.Entries {
		if entry != manifest.Entries[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, entry, manifest.Entries[i])
		}
	}
}

func TestLoadMissingManifestIsNotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLoadRejectsGappyManifest(t *testing.T) {
	dir := t.TempDir()
	payload := `{"0":{"path":"p","filename":"f","offset":0,"duration":1},"2":{"path":"q","filename":"f","offset":1,"duration":1}}`
	if err := os.WriteFile(filepath.Join(dir, manifestFileName), []byte(payload), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for non-contiguous indices")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	settings := testSettings()
	if err := saveSettings(dir, settings); err != nil {
		t.Fatalf("saveSettings: %v", err)
	}
	loaded, err := LoadSettings(dir)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	loadedKey, _ := loaded.Key()
	wantKey, _ := settings.Key()
	if loadedKey != wantKey {
		t.Fatalf("settings round trip changed key")
	}
}

func TestStatReportsEntries(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "abcd")
	manifest := Manifest{Entries: []ClipInfo{{Path: "clips/000000.avi", Filename: "a.avi", Duration: 2.3}}}
	if err := manifest.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := saveSettings(dir, testSettings()); err != nil {
		t.Fatalf("saveSettings: %v", err)
	}

	usage, err := statWith(root, func(string) (uint64, uint64, error) { return 100, 50, nil })
	if err != nil {
		t.Fatalf("statWith: %v", err)
	}
	if len(usage.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(usage.Entries))
	}
	if usage.Entries[0].ClipCount != 1 || usage.Entries[0].Settings == nil {
		t.Fatalf("unexpected entry summary %+v", usage.Entries[0])
	}
	if usage.FreeRatio != 0.5 {
		t.Fatalf("unexpected free ratio %v", usage.FreeRatio)
	}
}

func TestClearRemovesCache(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "abcd")
	if err := (Manifest{}).Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := Clear(dir); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected directory removed, got %v", err)
	}
	if err := Clear(dir); err != nil {
		t.Fatalf("Clear of absent dir should be nil, got %v", err)
	}
}

package testsupport

import (
	"context"
	"testing"

	"clipmatch/internal/config"
	"clipmatch/internal/results"
)

// MustOpenResults opens a results.Store for tests and registers cleanup.
func MustOpenResults(t testing.TB, cfg *config.Config) *results.Store {
	t.Helper()

	store, err := results.Open(cfg.Paths.ResultsDB)
	if err != nil {
		t.Fatalf("results.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRun creates an evaluation run row for tests using the provided store.
func NewRun(t testing.TB, store *results.Store, split, fragmentType string) results.Run {
	t.Helper()

	run, err := store.CreateRun(context.Background(), results.Run{Split: split, FragmentType: fragmentType})
	if err != nil {
		t.Fatalf("store.CreateRun: %v", err)
	}
	return run
}

package results

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"clipmatch/internal/services"
	"clipmatch/internal/triplet"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateRunAssignsIdentity(t *testing.T) {
	store := openTestStore(t)
	run, err := store.CreateRun(context.Background(), Run{Split: "val", FragmentType: "dialog", Clips: 42})
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if run.ID == 0 || run.UUID == "" || run.CreatedAt.IsZero() {
		t.Fatalf("run identity not assigned: %+v", run)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	first, err := store.CreateRun(ctx, Run{Split: "val", FragmentType: "dialog"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.CreateRun(ctx, Run{Split: "test", FragmentType: "dialog"})
	if err != nil {
		t.Fatal(err)
	}
	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].UUID != second.UUID || runs[1].UUID != first.UUID {
		t.Fatalf("unexpected order: %v then %v", runs[0].UUID, runs[1].UUID)
	}
}

func TestScoresRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	run, err := store.CreateRun(ctx, Run{Split: "val", FragmentType: "dialog"})
	if err != nil {
		t.Fatal(err)
	}
	result := triplet.Result{
		RecallPoint:       0.9,
		Recall:            [][]float64{{0.5, 0.7}, {0.6, 0.8}},
		TripletAccuracies: []float64{0.75, 0.8},
	}
	if err := store.AddScores(ctx, run.ID, ScoresFromResult(result, 2)); err != nil {
		t.Fatalf("AddScores: %v", err)
	}

	scores, err := store.RunScores(ctx, run.ID)
	if err != nil {
		t.Fatalf("RunScores: %v", err)
	}
	// 1 point + 4 recall + 2 triplet rows.
	if len(scores) != 7 {
		t.Fatalf("expected 7 score rows, got %d", len(scores))
	}
	if scores[0].Metric != MetricRecallPoint || scores[0].Value != 0.9 || scores[0].Cutoff != 2 {
		t.Fatalf("unexpected point score row: %+v", scores[0])
	}

	recall := RecallDistribution(scores)
	if len(recall[1]) != 2 || recall[1][0] != 0.5 || recall[1][1] != 0.6 {
		t.Fatalf("unexpected recall@1 distribution: %v", recall[1])
	}
	if len(recall[2]) != 2 || recall[2][1] != 0.8 {
		t.Fatalf("unexpected recall@2 distribution: %v", recall[2])
	}
	triplets := TripletDistribution(scores)
	if len(triplets) != 2 || triplets[0] != 0.75 {
		t.Fatalf("unexpected triplet distribution: %v", triplets)
	}
}

func TestFindRunByPrefix(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	run, err := store.CreateRun(ctx, Run{Split: "val", FragmentType: "dialog"})
	if err != nil {
		t.Fatal(err)
	}
	found, err := store.FindRun(ctx, run.UUID[:8])
	if err != nil {
		t.Fatalf("FindRun: %v", err)
	}
	if found.UUID != run.UUID {
		t.Fatalf("found %q, want %q", found.UUID, run.UUID)
	}
	if _, err := store.FindRun(ctx, "no-such-run"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRunCascadesScores(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	run, err := store.CreateRun(ctx, Run{Split: "val", FragmentType: "dialog"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.AddScores(ctx, run.ID, []Score{{Metric: MetricRecallPoint, Cutoff: 1, SampleIdx: -1, Value: 1}}); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteRun(ctx, run.ID); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	scores, err := store.RunScores(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 0 {
		t.Fatalf("expected cascade delete, got %d score rows", len(scores))
	}
	if _, err := store.FindRun(ctx, run.UUID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	run, err := store.CreateRun(context.Background(), Run{Split: "test", FragmentType: "narration"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	found, err := reopened.FindRun(context.Background(), run.UUID)
	if err != nil {
		t.Fatalf("FindRun after reopen: %v", err)
	}
	if found.Split != "test" || found.FragmentType != "narration" {
		t.Fatalf("unexpected run after reopen: %+v", found)
	}
}

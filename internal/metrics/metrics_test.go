package metrics

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"clipmatch/internal/encode"
	"clipmatch/internal/services"
)

func basisEmbeddings(n, dim int) []encode.Embedding {
	out := make([]encode.Embedding, n)
	for i := range out {
		emb := make(encode.Embedding, dim)
		emb[i%dim] = 1
		if i >= dim {
			emb[(i+1)%dim] = 1
		}
		out[i] = emb
	}
	return out
}

func TestCosine(t *testing.T) {
	a := encode.Embedding{1, 0}
	b := encode.Embedding{0, 1}
	if got := Cosine(a, a); math.Abs(got-1) > 1e-9 {
		t.Fatalf("Cosine(a, a) = %v, want 1", got)
	}
	if got := Cosine(a, b); math.Abs(got) > 1e-9 {
		t.Fatalf("Cosine(a, b) = %v, want 0", got)
	}
	if got := Cosine(a, encode.Embedding{0, 0}); got != 0 {
		t.Fatalf("Cosine with a zero vector = %v, want 0", got)
	}
}

func TestRecallIdentityIsPerfect(t *testing.T) {
	embs := basisEmbeddings(6, 6)
	for n := 1; n <= 6; n++ {
		hits, err := RecallAtN(embs, embs, IdentityCorrect(len(embs)), n)
		if err != nil {
			t.Fatalf("RecallAtN(n=%d): %v", n, err)
		}
		if got := Mean(hits); got != 1.0 {
			t.Fatalf("identity recall@%d = %v, want 1.0", n, got)
		}
	}
}

func TestRecallRanksByCosine(t *testing.T) {
	queries := []encode.Embedding{{1, 0}}
	candidates := []encode.Embedding{{0, 1}, {1, 0.1}, {1, 0}}
	hits, err := RecallAtN(queries, candidates, [][]int{{0}}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if hits[0] {
		t.Fatal("orthogonal candidate should not rank first")
	}
	hits, err = RecallAtN(queries, candidates, [][]int{{2}}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !hits[0] {
		t.Fatal("exact-match candidate should rank first")
	}
}

func TestRecallRejectsBadInput(t *testing.T) {
	embs := basisEmbeddings(3, 3)
	if _, err := RecallAtN(embs, embs, IdentityCorrect(2), 1); err == nil {
		t.Fatal("expected an error for mismatched correctness sets")
	}
	if _, err := RecallAtN(embs, embs, [][]int{{0}, {1}, {5}}, 1); err == nil {
		t.Fatal("expected an error for an out-of-range correct index")
	}
	if _, err := RecallAtN(embs, embs, IdentityCorrect(3), 0); err == nil {
		t.Fatal("expected an error for a zero cutoff")
	}
}

func TestResampledRecallShapeAndIdentity(t *testing.T) {
	embs := basisEmbeddings(20, 20)
	rng := rand.New(rand.NewSource(666))
	rows, err := ResampledRecallAt1ToN(embs, embs, 10, 7, 5, rng)
	if err != nil {
		t.Fatalf("ResampledRecallAt1ToN: %v", err)
	}
	if len(rows) != 7 {
		t.Fatalf("expected 7 samples, got %d", len(rows))
	}
	for s, row := range rows {
		if len(row) != 5 {
			t.Fatalf("sample %d has %d cutoffs, want 5", s, len(row))
		}
		for n, v := range row {
			if v != 1.0 {
				t.Fatalf("identity sample %d recall@%d = %v, want 1.0", s, n+1, v)
			}
		}
	}
}

func TestResampledRecallBoundsError(t *testing.T) {
	embs := basisEmbeddings(5, 5)
	rng := rand.New(rand.NewSource(1))
	_, err := ResampledRecallAt1ToN(embs, embs, 6, 1, 1, rng)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestResampledRecallDeterministicForSeed(t *testing.T) {
	queries := basisEmbeddings(12, 4)
	candidates := basisEmbeddings(12, 4)
	a, err := ResampledRecallAt1ToN(queries, candidates, 6, 3, 3, rand.New(rand.NewSource(666)))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ResampledRecallAt1ToN(queries, candidates, 6, 3, 3, rand.New(rand.NewSource(666)))
	if err != nil {
		t.Fatal(err)
	}
	for s := range a {
		for n := range a[s] {
			if a[s][n] != b[s][n] {
				t.Fatalf("sample %d cutoff %d diverged: %v vs %v", s, n, a[s][n], b[s][n])
			}
		}
	}
}

func TestTripletAccuracy(t *testing.T) {
	anchors := []encode.Embedding{{1, 0}, {0, 1}}
	positives := []encode.Embedding{{1, 0.1}, {0.1, 1}}
	negatives := []encode.Embedding{{0, 1}, {1, 0}}
	acc, err := TripletAccuracy(anchors, positives, negatives)
	if err != nil {
		t.Fatal(err)
	}
	if acc != 1.0 {
		t.Fatalf("accuracy = %v, want 1.0", acc)
	}
	acc, err = TripletAccuracy(anchors, negatives, positives)
	if err != nil {
		t.Fatal(err)
	}
	if acc != 0.0 {
		t.Fatalf("swapped accuracy = %v, want 0.0", acc)
	}
}

func TestTripletAccuracyRejectsEmpty(t *testing.T) {
	if _, err := TripletAccuracy(nil, nil, nil); err == nil {
		t.Fatal("expected an error for zero triplets")
	}
}

func TestResampledTripletAccuracyBounds(t *testing.T) {
	anchors := basisEmbeddings(4, 4)
	_, err := ResampledTripletAccuracy(anchors, anchors, anchors, 5, 1, rand.New(rand.NewSource(1)))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	mean, std := Summarize([]float64{1, 1, 1})
	if mean != 1 || std != 0 {
		t.Fatalf("Summarize = %v ± %v, want 1 ± 0", mean, std)
	}
	mean, std = Summarize([]float64{0, 2})
	if mean != 1 || std != 1 {
		t.Fatalf("Summarize = %v ± %v, want 1 ± 1", mean, std)
	}
}

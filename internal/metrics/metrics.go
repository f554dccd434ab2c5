package metrics

import (
	"fmt"
	"math"
	"math/rand"

	"clipmatch/internal/encode"
	"clipmatch/internal/services"
)

// Cosine returns the cosine similarity of two embeddings. Either vector
// having zero norm yields 0.
func Cosine(a, b encode.Embedding) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// IdentityCorrect builds the correctness sets where query i matches only
// candidate i.
func IdentityCorrect(n int) [][]int {
	correct := make([][]int, n)
	for i := range correct {
		correct[i] = []int{i}
	}
	return correct
}

// RecallAtN scores each query embedding against every candidate by cosine
// similarity. A query is a hit when one of its correct candidates ranks in
// the top n; rank counts candidates with strictly greater similarity, so
// ties never push a correct match out.
func RecallAtN(queries, candidates []encode.Embedding, correct [][]int, n int) ([]bool, error) {
	if len(correct) != len(queries) {
		return nil, services.Wrap(services.ErrValidation, "metrics", "recall",
			fmt.Sprintf("%d correctness sets for %d queries", len(correct), len(queries)), nil)
	}
	if n < 1 {
		return nil, services.Wrap(services.ErrValidation, "metrics", "recall",
			fmt.Sprintf("cutoff must be at least 1, got %d", n), nil)
	}
	hits := make([]bool, len(queries))
	for q, query := range queries {
		sims := make([]float64, len(candidates))
		for c, candidate := range candidates {
			sims[c] = Cosine(query, candidate)
		}
		best := math.Inf(-1)
		for _, c := range correct[q] {
			if c < 0 || c >= len(candidates) {
				return nil, services.Wrap(services.ErrValidation, "metrics", "recall",
					fmt.Sprintf("correct index %d out of range for %d candidates", c, len(candidates)), nil)
			}
			if sims[c] > best {
				best = sims[c]
			}
		}
		rank := 0
		for _, s := range sims {
			if s > best {
				rank++
			}
		}
		hits[q] = rank < n
	}
	return hits, nil
}

// Mean averages a hit vector into a point score.
func Mean(hits []bool) float64 {
	if len(hits) == 0 {
		return 0
	}
	var sum float64
	for _, h := range hits {
		if h {
			sum++
		}
	}
	return sum / float64(len(hits))
}

// ResampledRecallAt1ToN repeatedly draws a random subset of size embeddings
// and scores identity recall at every cutoff 1..maxN within the subset. The
// result is a samples-by-maxN matrix of recall values. Requesting a subset
// larger than the population is an error, never a silent truncation.
func ResampledRecallAt1ToN(queries, candidates []encode.Embedding, size, samples, maxN int, rng *rand.Rand) ([][]float64, error) {
	if len(queries) != len(candidates) {
		return nil, services.Wrap(services.ErrValidation, "metrics", "resample",
			fmt.Sprintf("%d queries but %d candidates", len(queries), len(candidates)), nil)
	}
	if size > len(queries) {
		return nil, services.Wrap(services.ErrValidation, "metrics", "resample",
			fmt.Sprintf("subset size %d exceeds population %d", size, len(queries)), nil)
	}
	if size < 1 || samples < 1 || maxN < 1 {
		return nil, services.Wrap(services.ErrValidation, "metrics", "resample",
			fmt.Sprintf("size %d, samples %d, and cutoff %d must all be at least 1", size, samples, maxN), nil)
	}
	out := make([][]float64, samples)
	for s := 0; s < samples; s++ {
		idx := rng.Perm(len(queries))[:size]
		subQ := make([]encode.Embedding, size)
		subC := make([]encode.Embedding, size)
		for i, j := range idx {
			subQ[i] = queries[j]
			subC[i] = candidates[j]
		}
		row := make([]float64, maxN)
		for n := 1; n <= maxN; n++ {
			hits, err := RecallAtN(subQ, subC, IdentityCorrect(size), n)
			if err != nil {
				return nil, err
			}
			row[n-1] = Mean(hits)
		}
		out[s] = row
	}
	return out, nil
}

// TripletAccuracy is the fraction of triplets where the anchor is closer to
// its positive than to its negative.
func TripletAccuracy(anchors, positives, negatives []encode.Embedding) (float64, error) {
	if len(anchors) != len(positives) || len(anchors) != len(negatives) {
		return 0, services.Wrap(services.ErrValidation, "metrics", "triplet",
			fmt.Sprintf("mismatched triplet parts: %d anchors, %d positives, %d negatives",
				len(anchors), len(positives), len(negatives)), nil)
	}
	if len(anchors) == 0 {
		return 0, services.Wrap(services.ErrValidation, "metrics", "triplet", "no triplets to score", nil)
	}
	var correct float64
	for i := range anchors {
		if Cosine(anchors[i], positives[i]) > Cosine(anchors[i], negatives[i]) {
			correct++
		}
	}
	return correct / float64(len(anchors)), nil
}

// ResampledTripletAccuracy draws random triplet subsets and scores each,
// returning one accuracy per sample.
func ResampledTripletAccuracy(anchors, positives, negatives []encode.Embedding, size, samples int, rng *rand.Rand) ([]float64, error) {
	if size > len(anchors) {
		return nil, services.Wrap(services.ErrValidation, "metrics", "triplet",
			fmt.Sprintf("subset size %d exceeds %d triplets", size, len(anchors)), nil)
	}
	if size < 1 || samples < 1 {
		return nil, services.Wrap(services.ErrValidation, "metrics", "triplet",
			fmt.Sprintf("size %d and samples %d must be at least 1", size, samples), nil)
	}
	out := make([]float64, samples)
	for s := 0; s < samples; s++ {
		idx := rng.Perm(len(anchors))[:size]
		subA := make([]encode.Embedding, size)
		subP := make([]encode.Embedding, size)
		subN := make([]encode.Embedding, size)
		for i, j := range idx {
			subA[i] = anchors[j]
			subP[i] = positives[j]
			subN[i] = negatives[j]
		}
		acc, err := TripletAccuracy(subA, subP, subN)
		if err != nil {
			return nil, err
		}
		out[s] = acc
	}
	return out, nil
}

// Summarize reduces a resampled distribution to its mean and standard
// deviation.
func Summarize(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	for _, v := range values {
		d := v - mean
		std += d * d
	}
	std = math.Sqrt(std / float64(len(values)))
	return mean, std
}

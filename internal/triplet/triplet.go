package triplet

import (
	"math"
	"math/rand"

	"clipmatch/internal/dataset"
	"clipmatch/internal/media/clips"
	"clipmatch/internal/tensor"
)

// Triplet is one scored example: the anchor is the target clip's audio, the
// positive its own video, the negative the video of a distractor clip drawn
// from the same duration bucket.
type Triplet struct {
	Anchor        tensor.Tensor
	Positive      tensor.Tensor
	Negative      tensor.Tensor
	TargetIdx     int
	DistractorIdx int
}

// TripletBatch holds collated triplet parts padded along the time axis.
type TripletBatch struct {
	Anchors   tensor.Tensor
	Positives tensor.Tensor
	Negatives tensor.Tensor
}

// Bucket rounds a duration to the nearest multiple of ms milliseconds, so
// clips whose lengths differ only by jitter land in the same group.
func Bucket(duration float64, ms int) float64 {
	if ms <= 0 {
		return duration
	}
	step := float64(ms) / 1000
	return math.Round(duration/step) * step
}

// SampleIndices draws target/distractor index pairs: items are grouped by
// key, each group is shuffled, and consecutive elements are paired off with
// any odd remainder dropped. Which side of a pair is the target is a
// 2-without-replacement draw. A group of size 1 yields nothing; a group of
// size k yields floor(k/2) pairs.
func SampleIndices(n int, key func(int) float64, rng *rand.Rand) [][2]int {
	var order []float64
	groups := make(map[float64][]int)
	for i := 0; i < n; i++ {
		k := key(i)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	var pairs [][2]int
	for _, k := range order {
		group := groups[k]
		rng.Shuffle(len(group), func(i, j int) {
			group[i], group[j] = group[j], group[i]
		})
		for i := 0; i+1 < len(group); i += 2 {
			target, distractor := group[i], group[i+1]
			if rng.Intn(2) == 1 {
				target, distractor = distractor, target
			}
			pairs = append(pairs, [2]int{target, distractor})
		}
	}
	return pairs
}

// Sample draws triplets from a clip sequence using the given grouping key.
func Sample(items []clips.Clip, key func(clips.Clip) float64, rng *rand.Rand) []Triplet {
	pairs := SampleIndices(len(items), func(i int) float64 { return key(items[i]) }, rng)
	out := make([]Triplet, 0, len(pairs))
	for _, p := range pairs {
		target, distractor := items[p[0]], items[p[1]]
		out = append(out, Triplet{
			Anchor:        target.Audio,
			Positive:      target.Video,
			Negative:      distractor.Video,
			TargetIdx:     p[0],
			DistractorIdx: p[1],
		})
	}
	return out
}

// CollateTriplets pads and stacks the three parts of a triplet set.
func CollateTriplets(items []Triplet) (TripletBatch, error) {
	anchors := make([]tensor.Tensor, 0, len(items))
	positives := make([]tensor.Tensor, 0, len(items))
	negatives := make([]tensor.Tensor, 0, len(items))
	for _, item := range items {
		anchors = append(anchors, item.Anchor)
		positives = append(positives, item.Positive)
		negatives = append(negatives, item.Negative)
	}
	a, err := dataset.PadAudioBatch(anchors)
	if err != nil {
		return TripletBatch{}, err
	}
	p, err := dataset.PadVideoBatch(positives)
	if err != nil {
		return TripletBatch{}, err
	}
	n, err := dataset.PadVideoBatch(negatives)
	if err != nil {
		return TripletBatch{}, err
	}
	return TripletBatch{Anchors: a, Positives: p, Negatives: n}, nil
}

package results

import (
	"time"

	"clipmatch/internal/triplet"
)

// Metric names stored in the scores table.
const (
	MetricRecallPoint     = "recall_point"
	MetricRecall          = "recall"
	MetricTripletAccuracy = "triplet_accuracy"
)

// Run is one evaluation of one split.
type Run struct {
	ID           int64
	UUID         string
	CreatedAt    time.Time
	Split        string
	FragmentType string
	Clips        int
	Config       string // JSON snapshot of the evaluation settings
}

// Score is one stored metric value. Cutoff is 0 and SampleIdx is -1 where
// they do not apply.
type Score struct {
	Metric    string
	Cutoff    int
	SampleIdx int
	Value     float64
}

// ScoresFromResult flattens a scorer result into score rows: the point
// recall, the full resampled recall distribution, and each triplet sample.
func ScoresFromResult(result triplet.Result, recallN int) []Score {
	scores := []Score{{Metric: MetricRecallPoint, Cutoff: recallN, SampleIdx: -1, Value: result.RecallPoint}}
	for sample, row := range result.Recall {
		for i, value := range row {
			scores = append(scores, Score{
				Metric:    MetricRecall,
				Cutoff:    i + 1,
				SampleIdx: sample,
				Value:     value,
			})
		}
	}
	for sample, acc := range result.TripletAccuracies {
		scores = append(scores, Score{
			Metric:    MetricTripletAccuracy,
			SampleIdx: sample,
			Value:     acc,
		})
	}
	return scores
}

// RecallDistribution regroups stored recall rows by cutoff.
func RecallDistribution(scores []Score) map[int][]float64 {
	out := make(map[int][]float64)
	for _, score := range scores {
		if score.Metric != MetricRecall {
			continue
		}
		out[score.Cutoff] = append(out[score.Cutoff], score.Value)
	}
	return out
}

// TripletDistribution extracts the stored triplet accuracies in order.
func TripletDistribution(scores []Score) []float64 {
	var out []float64
	for _, score := range scores {
		if score.Metric == MetricTripletAccuracy {
			out = append(out, score.Value)
		}
	}
	return out
}

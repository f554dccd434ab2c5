package triplet

import (
	"context"
	"math/rand"

	"log/slog"

	"clipmatch/internal/dataset"
	"clipmatch/internal/encode"
	"clipmatch/internal/logging"
	"clipmatch/internal/media/clips"
	"clipmatch/internal/metrics"
	"clipmatch/internal/services"
)

// ScoreOptions selects the evaluation protocol for one split.
type ScoreOptions struct {
	RecallN          int
	ResampleSize     int
	ResampleCount    int
	TripletSamples   int
	DurationBucketMS int
	Seed             int64
}

// Result carries the scores for one evaluated split.
type Result struct {
	Clips             int
	RecallPoint       float64
	Recall            [][]float64 // [sample][cutoff-1] resampled recall
	TripletAccuracies []float64   // one accuracy per resampled triplet set
}

// Scorer encodes a split once and scores it. Embeddings are computed in
// duration-homogeneous batches and reused across every resampled metric, so
// the encoder runs exactly once per clip and modality.
type Scorer struct {
	encoder   encode.Encoder
	batchSize int
	logger    *slog.Logger
}

// NewScorer wires an encoder into the evaluation pipeline.
func NewScorer(encoder encode.Encoder, batchSize int, logger *slog.Logger) *Scorer {
	return &Scorer{
		encoder:   encoder,
		batchSize: batchSize,
		logger:    logging.NewComponentLogger(logger, "scorer"),
	}
}

// Score evaluates a clip sequence end to end: encode, point recall,
// resampled recall distribution, and resampled triplet accuracy. All
// randomness flows from the seed in opts.
func (s *Scorer) Score(ctx context.Context, items []clips.Clip, opts ScoreOptions) (Result, error) {
	if len(items) == 0 {
		return Result{}, services.Wrap(services.ErrValidation, "scorer", "score", "no clips to score", nil)
	}

	bucket := func(c clips.Clip) float64 { return Bucket(c.Duration, opts.DurationBucketMS) }
	ordered, video, audio, err := s.encodeAll(ctx, items, bucket)
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("split encoded",
		logging.Int("clips", len(ordered)),
		logging.Int("batch_size", s.batchSize),
	)

	rng := rand.New(rand.NewSource(opts.Seed))
	hits, err := metrics.RecallAtN(video, audio, metrics.IdentityCorrect(len(video)), opts.RecallN)
	if err != nil {
		return Result{}, err
	}
	recall, err := metrics.ResampledRecallAt1ToN(video, audio, opts.ResampleSize, opts.ResampleCount, opts.RecallN, rng)
	if err != nil {
		return Result{}, err
	}

	accuracies := make([]float64, 0, opts.TripletSamples)
	for i := 0; i < opts.TripletSamples; i++ {
		pairs := SampleIndices(len(ordered), func(idx int) float64 { return bucket(ordered[idx]) }, rng)
		if len(pairs) == 0 {
			return Result{}, services.Wrap(services.ErrValidation, "scorer", "score",
				"no triplets could be drawn: every duration bucket has a single clip", nil)
		}
		anchors := make([]encode.Embedding, len(pairs))
		positives := make([]encode.Embedding, len(pairs))
		negatives := make([]encode.Embedding, len(pairs))
		for j, p := range pairs {
			anchors[j] = audio[p[0]]
			positives[j] = video[p[0]]
			negatives[j] = video[p[1]]
		}
		acc, err := metrics.TripletAccuracy(anchors, positives, negatives)
		if err != nil {
			return Result{}, err
		}
		accuracies = append(accuracies, acc)
	}

	return Result{
		Clips:             len(ordered),
		RecallPoint:       metrics.Mean(hits),
		Recall:            recall,
		TripletAccuracies: accuracies,
	}, nil
}

// encodeAll collates duration-homogeneous batches and encodes both
// modalities, returning clips and embeddings in matching order.
func (s *Scorer) encodeAll(ctx context.Context, items []clips.Clip, bucket func(clips.Clip) float64) ([]clips.Clip, []encode.Embedding, []encode.Embedding, error) {
	batches := dataset.GroupedBatches(items, bucket, s.batchSize)
	var ordered []clips.Clip
	var video, audio []encode.Embedding
	for _, batch := range batches {
		collated, err := dataset.Collate(batch)
		if err != nil {
			return nil, nil, nil, err
		}
		v, err := s.encoder.EncodeVideo(ctx, collated)
		if err != nil {
			return nil, nil, nil, services.Wrap(services.ErrTransient, "scorer", "encode", "video encoder failed", err)
		}
		a, err := s.encoder.EncodeAudio(ctx, collated)
		if err != nil {
			return nil, nil, nil, services.Wrap(services.ErrTransient, "scorer", "encode", "audio encoder failed", err)
		}
		if len(v) != len(batch) || len(a) != len(batch) {
			return nil, nil, nil, services.Wrap(services.ErrValidation, "scorer", "encode",
				"encoder returned a different number of embeddings than clips", nil)
		}
		ordered = append(ordered, batch...)
		video = append(video, v...)
		audio = append(audio, a...)
	}
	return ordered, video, audio, nil
}

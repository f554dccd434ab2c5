package encode

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"clipmatch/internal/dataset"
	"clipmatch/internal/tensor"
)

// MeanEncoder is a deterministic baseline encoder: it pools each channel
// over time, projects the pooled features through a fixed seeded random
// matrix, and L2-normalizes the result. It exists so the evaluation
// pipeline runs end to end without an external model.
type MeanEncoder struct {
	dim          int
	videoPooling string
	audioPooling string
	seed         int64
}

// NewMeanEncoder builds a baseline encoder. Each pooling mode must be one
// of average, attention, or last.
func NewMeanEncoder(dim int, videoPooling, audioPooling string, seed int64) (*MeanEncoder, error) {
	for _, pooling := range []string{videoPooling, audioPooling} {
		switch pooling {
		case "average", "attention", "last":
		default:
			return nil, fmt.Errorf("encode: unknown pooling mode %q", pooling)
		}
	}
	if dim <= 0 {
		return nil, fmt.Errorf("encode: embedding dim must be positive, got %d", dim)
	}
	return &MeanEncoder{dim: dim, videoPooling: videoPooling, audioPooling: audioPooling, seed: seed}, nil
}

// EncodeVideo embeds the batch's [B,C,T,H,W] video tensor.
func (e *MeanEncoder) EncodeVideo(ctx context.Context, batch dataset.ClipBatch) ([]Embedding, error) {
	return e.embed(ctx, batch.Video, e.videoPooling)
}

// EncodeAudio embeds the batch's [B,C,S] audio tensor.
func (e *MeanEncoder) EncodeAudio(ctx context.Context, batch dataset.ClipBatch) ([]Embedding, error) {
	return e.embed(ctx, batch.Audio, e.audioPooling)
}

func (e *MeanEncoder) embed(ctx context.Context, batch tensor.Tensor, pooling string) ([]Embedding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	features, err := e.features(batch, pooling)
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, nil
	}
	proj := e.projection(len(features[0]))
	out := make([]Embedding, len(features))
	for b, f := range features {
		emb := make(Embedding, e.dim)
		var norm float64
		for i, row := range proj {
			var sum float64
			for j, w := range row {
				sum += w * f[j]
			}
			emb[i] = float32(sum)
			norm += sum * sum
		}
		if norm > 0 {
			scale := float32(1 / math.Sqrt(norm))
			for i := range emb {
				emb[i] *= scale
			}
		}
		out[b] = emb
	}
	return out, nil
}

// features pools each channel over time: the configured pooling of the
// per-frame means plus the channel RMS, two features per channel.
func (e *MeanEncoder) features(batch tensor.Tensor, pooling string) ([][]float64, error) {
	if len(batch.Shape) < 3 {
		return nil, fmt.Errorf("encode: batch tensor needs at least [B,C,T] axes, got shape %v", batch.Shape)
	}
	samples := batch.Dim(0)
	channels := batch.Dim(1)
	steps := batch.Dim(2)
	inner := 1
	for _, d := range batch.Shape[3:] {
		inner *= d
	}
	if steps == 0 || inner == 0 {
		return nil, fmt.Errorf("encode: empty batch tensor, shape %v", batch.Shape)
	}

	out := make([][]float64, samples)
	frame := steps * inner
	channel := channels * frame
	for b := 0; b < samples; b++ {
		f := make([]float64, 2*channels)
		for c := 0; c < channels; c++ {
			base := b*channel + c*frame
			means := make([]float64, steps)
			var sq float64
			for t := 0; t < steps; t++ {
				var sum float64
				for i := 0; i < inner; i++ {
					v := float64(batch.Data[base+t*inner+i])
					sum += v
					sq += v * v
				}
				means[t] = sum / float64(inner)
			}
			f[2*c] = pool(pooling, means)
			f[2*c+1] = math.Sqrt(sq / float64(frame))
		}
		out[b] = f
	}
	return out, nil
}

func pool(pooling string, means []float64) float64 {
	switch pooling {
	case "last":
		return means[len(means)-1]
	case "attention":
		// Magnitude-weighted average; degenerates to uniform on silence.
		var total float64
		for _, m := range means {
			total += math.Abs(m)
		}
		if total == 0 {
			break
		}
		var pooled float64
		for _, m := range means {
			pooled += (math.Abs(m) / total) * m
		}
		return pooled
	}
	var sum float64
	for _, m := range means {
		sum += m
	}
	return sum / float64(len(means))
}

// projection derives a fixed dim-by-in matrix from the seed and the input
// width, so repeated calls and fresh encoders agree exactly.
func (e *MeanEncoder) projection(in int) [][]float64 {
	rng := rand.New(rand.NewSource(e.seed + int64(in)))
	rows := make([][]float64, e.dim)
	for i := range rows {
		row := make([]float64, in)
		for j := range row {
			row[j] = rng.NormFloat64()
		}
		rows[i] = row
	}
	return rows
}

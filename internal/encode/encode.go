package encode

import (
	"context"

	"clipmatch/internal/dataset"
)

// Embedding is a single L2-normalizable embedding vector.
type Embedding []float32

// Encoder produces embeddings for collated batches. Implementations backed
// by a training framework live outside this module; MeanEncoder is the
// in-tree baseline.
type Encoder interface {
	EncodeVideo(ctx context.Context, batch dataset.ClipBatch) ([]Embedding, error)
	EncodeAudio(ctx context.Context, batch dataset.ClipBatch) ([]Embedding, error)
}

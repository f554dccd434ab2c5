// Package tensor provides the dense float32 buffers-with-shape that flow
// between extraction, batching, and scoring.
//
// This is deliberately a container, not a math library: batches hand
// contiguous float32 data plus shape metadata across the encoder seam, where
// an external training framework takes over. Padding, cropping, stacking,
// and the per-channel accumulators needed for normalization statistics are
// the whole surface.
package tensor

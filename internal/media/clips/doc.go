// Package clips segments source videos into fixed-duration or line-aligned
// windows and materializes them as decoded tensors or encoded sub-clip
// files.
//
// Decoding shells out to ffmpeg with raw RGB and float32 PCM pipes; probing
// uses the ffprobe wrapper. Windows that decode to zero frames yield
// ErrEmptyClip, which callers treat as a per-clip skip rather than a fatal
// failure. Start-offset jitter draws from a caller-supplied random source so
// extraction stays deterministic under a fixed seed.
package clips

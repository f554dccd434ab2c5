// Package stats computes and persists per-channel normalization statistics
// for video and audio tensors using an exact two-pass mean/std sweep.
package stats

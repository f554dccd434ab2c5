// Package metrics scores cross-modal retrieval: cosine similarity,
// recall at fixed cutoffs, resampled recall distributions, and triplet
// accuracy over embedding sets.
package metrics

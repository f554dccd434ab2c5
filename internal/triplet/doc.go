// Package triplet draws audio-anchored triplets from duration-bucketed
// clips and scores encoded splits with recall and triplet accuracy.
package triplet

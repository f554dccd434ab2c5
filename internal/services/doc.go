// Package services defines shared error utilities consumed across the
// pipeline.
//
// Structured error markers plus the Wrap helper keep failure classification
// uniform: configuration and validation problems abort a run immediately,
// while per-clip decode failures stay recoverable and let the enclosing
// iteration continue.
package services

// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no clipmatch-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helper methods provide duration, frame rate, and sample rate parsing.
package ffprobe

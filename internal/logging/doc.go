// Package logging wraps log/slog with the attribute helpers and handlers
// used across the pipeline.
//
// Handlers: a compact console format for interactive use and a JSON format
// for machine consumption, selected via configuration. Component loggers
// stamp a standardized component attribute so cache, dataset, and evaluation
// output stays filterable.
package logging

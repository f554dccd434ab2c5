// Package encode defines the embedding seam between the data pipeline and
// an external model, plus a deterministic in-tree baseline encoder.
package encode

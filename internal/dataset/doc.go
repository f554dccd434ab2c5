// Package dataset turns a populated clip cache into batched training data.
// It discovers source videos per split, partitions work across decode
// workers deterministically, and collates clips into padded or cropped
// tensor batches with self-match positive pairs.
package dataset

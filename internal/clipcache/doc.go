// Package clipcache persists extracted clips under content-addressed
// directories so repeated runs with the same dataset configuration skip
// extraction entirely.
//
// The cache key is a sha256 over the canonicalized settings mapping: a pure
// function of the configuration, independent of key order. Each populated
// cache holds the encoded sub-clips, a manifest.json mapping index strings
// to clip metadata in a deterministic order, and a settings.json recording
// the exact configuration that produced it for auditing.
//
// First-time population takes a file lock so two processes computing the
// same key do not race on directory writes; the manifest is renamed into
// place last, so a crash mid-population is indistinguishable from an empty
// cache and recovery is simply a rerun.
package clipcache

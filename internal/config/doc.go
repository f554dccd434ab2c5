// Package config loads, normalizes, and validates the TOML configuration
// shared by every clipmatch command.
//
// Loading is split into three phases: decode (go-toml), normalize (path
// expansion, defaulting, case folding), and validate (split names, fragment
// types, pooling modes, jitter settings). Validation failures are fatal;
// commands never run against a config that did not pass all three phases.
package config

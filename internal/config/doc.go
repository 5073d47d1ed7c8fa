// Package config loads, normalizes, and validates the ratingsync TOML
// configuration.
package config

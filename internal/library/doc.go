// Package library defines the capability contract for the local media
// library: structured queries over items (exact, substring, and
// numeric-range predicates joined by conjunction) and rating persistence.
// The beetsdb package provides the SQLite-backed implementation; tests use
// in-memory fakes.
package library

// Package logging builds the slog loggers used across ratingsync and the
// attribute helpers that keep call sites terse. The console handler renders
// compact human-oriented lines (with color when attached to a terminal); the
// json format is available for scripted use. Components obtain scoped
// loggers through NewComponentLogger.
package logging

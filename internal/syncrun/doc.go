// Package syncrun orchestrates one rating sync: importers fill the
// store, exporters drain it, and the match cache is persisted at the
// end.
//
// A cache directory is owned by exactly one run at a time; the runner
// takes a file lock on it and refuses to start while another run holds
// it.
package syncrun

// Package collcache persists MusicBrainz collection listings as CSV
// files under a single cache directory.
//
// Two shapes are cached: the user's collection list and the recordings
// inside one collection. A missing or unreadable cache file triggers a
// full remote reload followed by a rewrite of the file. An empty but
// readable cache is trusted as-is; an empty collection costs nothing to
// represent and refreshing it would burn a rate-limited call.
package collcache

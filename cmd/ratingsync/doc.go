// Command ratingsync reconciles song ratings between a beets library,
// MusicBrainz collections, the Last.fm loved-tracks feed, and CSV
// snapshots.
package main

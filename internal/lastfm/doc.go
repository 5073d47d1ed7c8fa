// Package lastfm is a minimal Last.fm JSON API client covering the
// loved-tracks feed and per-track album lookups.
//
// The feed arrives newest first, which lets callers stop paging as soon
// as they reach a timestamp they have already seen. Album lookups fail
// often on the Last.fm side and therefore degrade to an empty album
// instead of returning an error.
package lastfm

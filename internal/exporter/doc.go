// Package exporter pushes the merged rating store out to CSV snapshots,
// MusicBrainz star collections, and the local library.
package exporter

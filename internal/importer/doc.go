// Package importer feeds ratings into the store from CSV snapshots,
// MusicBrainz star collections, and the Last.fm loved-tracks feed.
//
// Importers never fail a run over a single bad row or an unresolvable
// track; those are logged and counted. Only transport-level failures
// surface as errors.
package importer

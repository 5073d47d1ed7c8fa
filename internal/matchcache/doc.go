// Package matchcache provides the persistent lookup cache consulted before
// any remote catalog or library query. Entries are keyed by a normalized
// artist:title pair and indexed a second time by MusicBrainz recording ID.
//
// The cache lives for the whole process and is written to disk only on an
// explicit Save, as CSV with the columns mbid,artist,title,album,length. A
// missing, unreadable, or malformed cache file simply yields an empty cache;
// malformed rows are skipped individually.
//
// The album is deliberately excluded from the primary key: an artist:title
// pair is assumed to identify a recording across releases, accepting rare
// collisions between alternate releases of the same song.
package matchcache

// Package beetsdb implements the library capability over a beets SQLite
// database. Reads go against the items table; ratings persist to the
// flexible-attribute table beets exposes as item fields. The database is
// opened read-write but ratingsync never alters core item columns.
package beetsdb

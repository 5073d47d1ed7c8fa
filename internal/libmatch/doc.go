// Package libmatch resolves recordings against the local music library.
//
// Resolution prefers the stored external identifier, falling back to a
// fuzzy title and length search. Library rows without an identifier can
// be enriched through the catalog search engine unless library-only mode
// pins all resolution to local data.
package libmatch

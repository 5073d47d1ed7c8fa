// Package textnorm contains the pure text transforms used for track identity
// resolution: artist-list splitting, ASCII transliteration, title
// canonicalization, and fuzzy similarity scoring.
//
// Every function here is deterministic and performs no I/O. NormalizeTitle is
// idempotent, so cache keys derived from it remain stable across repeated
// normalization.
package textnorm

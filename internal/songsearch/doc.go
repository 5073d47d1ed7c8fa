// Package songsearch resolves (artist, title, album) queries against the
// remote catalog when no recording ID is known.
//
// Resolution is staged: the match cache first, then a release-oriented
// search that walks release groups (albums before EPs before singles) and
// their track lists, then a recording-oriented fallback that prefers the
// recording appearing on the most releases. Every title comparison is
// gated on the fixed fuzzy threshold plus "extended"-mix parity so an
// extended edit never stands in for the standard mix. Strict searches that
// come up empty are retried once with relaxed query semantics.
//
// Remote failures are soft misses: logged, never surfaced as errors.
package songsearch

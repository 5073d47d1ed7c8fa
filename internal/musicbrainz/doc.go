// Package musicbrainz is the ws/2 JSON client for the remote catalog:
// release-group and recording search, entity lookups, user collections, and
// rating submission.
//
// Search supports strict and relaxed query semantics; strict quotes each
// field term and AND-joins them, relaxed lets the server's default OR
// scoring apply. Mutating calls and collection listing require credentials.
// The client owns its request pacing: a minimum interval between calls and
// a counter of rate-limited requests, with no package-level state.
package musicbrainz

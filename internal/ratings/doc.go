// Package ratings holds the in-memory aggregation table a sync run builds:
// one merged record per MusicBrainz recording ID, per-source membership
// sets, and conflict bookkeeping for sources that disagree. The store is
// the single truth importers write into and exporters read out of; it is
// created empty for each run and discarded afterwards.
package ratings

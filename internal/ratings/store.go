package ratings

import (
	"context"

	"ratingsync/internal/recording"
)

// AdvisorySource is excluded from conflict comparisons: its ratings are
// derived (every loved track maps to the same default), so disagreement
// with it carries no signal.
const AdvisorySource = "lastfm"

// Conflict records that two or more authoritative sources reported
// different ratings for one recording. It is advisory bookkeeping only and
// never blocks a merge.
type Conflict struct {
	MBID string
	// Ratings is the full provenance snapshot at detection time, advisory
	// sources included.
	Ratings map[string]int
}

// Importer feeds ratings into a store. Implementations report unmatched
// entries through their own logging and never fail a run on a soft miss.
type Importer interface {
	Import(ctx context.Context, store *Store) error
}

// Exporter pushes the merged store contents out to a destination.
type Exporter interface {
	Export(ctx context.Context, store *Store) error
}

// Store aggregates ratings from every source, keyed by recording MBID.
// It is owned by exactly one sync run; callers serialize access.
type Store struct {
	// Ratings maps MBID to the merged record.
	Ratings map[string]*recording.Info
	// Conflicts maps MBID to the conflict entry, if any.
	Conflicts map[string]*Conflict

	sets map[string]map[string]struct{}
	all  map[string]struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		Ratings:   make(map[string]*recording.Info),
		Conflicts: make(map[string]*Conflict),
		sets:      make(map[string]map[string]struct{}),
		all:       make(map[string]struct{}),
	}
}

// Add merges a recording reported by source into the store.
//
// The first source to rate a recording wins: later non-overwriting adds
// keep the stored rating and only contribute provenance. With overwrite
// set, the incoming rating replaces the stored one. Either way the id
// joins the source's rating set and the union set, and a conflict entry is
// recorded when authoritative sources disagree.
func (s *Store) Add(rec *recording.Info, source string, overwrite bool) {
	if rec == nil || rec.MBID == "" {
		return
	}

	stored, exists := s.Ratings[rec.MBID]
	if !exists {
		s.Ratings[rec.MBID] = rec
		stored = rec
	} else if overwrite {
		stored.Rating = rec.Rating
	}

	stored.SetSource(source, rec.Rating)

	s.all[rec.MBID] = struct{}{}
	if source != "" {
		set, ok := s.sets[source]
		if !ok {
			set = make(map[string]struct{})
			s.sets[source] = set
		}
		set[rec.MBID] = struct{}{}
	}

	s.detectConflict(stored)
}

// detectConflict compares the authoritative provenance values for a record
// and snapshots them when they disagree.
func (s *Store) detectConflict(stored *recording.Info) {
	min, max := 0, 0
	counted := 0
	for source, rating := range stored.Sources {
		if source == AdvisorySource {
			continue
		}
		if counted == 0 || rating < min {
			min = rating
		}
		if counted == 0 || rating > max {
			max = rating
		}
		counted++
	}
	if counted < 2 || min == max {
		return
	}

	snapshot := make(map[string]int, len(stored.Sources))
	for source, rating := range stored.Sources {
		snapshot[source] = rating
	}
	s.Conflicts[stored.MBID] = &Conflict{MBID: stored.MBID, Ratings: snapshot}
}

// MissingForSet returns the ids known to the store that the named source
// has not contributed: the union set minus the source's rating set, or the
// whole union set when the source has contributed nothing yet.
func (s *Store) MissingForSet(source string) map[string]struct{} {
	missing := make(map[string]struct{})
	set := s.sets[source]
	for mbid := range s.all {
		if set != nil {
			if _, ok := set[mbid]; ok {
				continue
			}
		}
		missing[mbid] = struct{}{}
	}
	return missing
}

// MarkSetComplete records that the named source now covers every known id.
// Exporters call this after pushing the delta.
func (s *Store) MarkSetComplete(source string) {
	set := make(map[string]struct{}, len(s.all))
	for mbid := range s.all {
		set[mbid] = struct{}{}
	}
	s.sets[source] = set
}

// SetSize returns how many ids the named source has contributed.
func (s *Store) SetSize(source string) int {
	return len(s.sets[source])
}

// SetSizes returns the contribution count of every source seen so far.
func (s *Store) SetSizes() map[string]int {
	sizes := make(map[string]int, len(s.sets))
	for source, set := range s.sets {
		sizes[source] = len(set)
	}
	return sizes
}

// Len returns the number of merged records.
func (s *Store) Len() int {
	return len(s.Ratings)
}

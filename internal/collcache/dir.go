package collcache

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir is the cache directory every durable sync artifact lives under.
type Dir struct {
	path string
}

// NewDir creates the cache directory if needed and returns it.
func NewDir(path string) (*Dir, error) {
	if path == "" {
		return nil, fmt.Errorf("cache directory required")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory itself.
func (d *Dir) Path() string {
	return d.path
}

// TrackCachePath is the resolved-recording cache file.
func (d *Dir) TrackCachePath() string {
	return filepath.Join(d.path, "tracks.csv")
}

// RatingCachePath is the CSV rating snapshot file.
func (d *Dir) RatingCachePath() string {
	return filepath.Join(d.path, "ratings.csv")
}

// UserCachePath is the collection list cache for one user.
func (d *Dir) UserCachePath(user string) string {
	return filepath.Join(d.path, fmt.Sprintf("user-%s.csv", user))
}

// CollectionCachePath is the recording list cache for one collection.
func (d *Dir) CollectionCachePath(mbid string) string {
	return filepath.Join(d.path, fmt.Sprintf("coll-%s.csv", mbid))
}

// LovedCachePath is the loved-tracks cache for one Last.fm user.
func (d *Dir) LovedCachePath(user string) string {
	return filepath.Join(d.path, fmt.Sprintf("loved-%s.csv", user))
}

// UnmatchedCachePath holds loved tracks that could not be resolved.
func (d *Dir) UnmatchedCachePath(user string) string {
	return filepath.Join(d.path, fmt.Sprintf("unmatched-%s.csv", user))
}

// LockPath is the file the run lock is taken on.
func (d *Dir) LockPath() string {
	return filepath.Join(d.path, "sync.lock")
}

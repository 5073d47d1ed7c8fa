package matchcache

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"ratingsync/internal/logging"
	"ratingsync/internal/recording"
	"ratingsync/internal/textnorm"
)

var header = []string{"mbid", "artist", "title", "album", "length"}

// Cache is the artist:title -> recording lookup table. All successful
// resolutions are written through it so repeated syncs avoid remote calls.
type Cache struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]*recording.Info // keyed by Key()
	byMBID  map[string]*recording.Info
}

// New creates a cache backed by the given file path and loads any existing
// contents. A load failure is logged and leaves the cache empty.
func New(path string, logger *slog.Logger) *Cache {
	logger = logging.NewComponentLogger(logger, "matchcache")

	c := &Cache{
		path:    path,
		logger:  logger,
		entries: make(map[string]*recording.Info),
		byMBID:  make(map[string]*recording.Info),
	}

	if path == "" {
		return c
	}

	if err := c.load(); err != nil {
		logger.Warn("failed to load track cache",
			logging.Error(err),
			logging.String("path", path))
	}

	return c
}

// Key derives the primary cache key for an artist and title. The album never
// participates; only the first artist token and the normalized title do.
func Key(artist, title string) string {
	return strings.ToLower(textnorm.FirstArtist(artist) + ":" + textnorm.NormalizeTitle(title))
}

// Get returns the cached recording for an artist and title. The album
// argument is accepted for call-site symmetry but does not affect the key.
func (c *Cache) Get(artist, title, album string) (*recording.Info, bool) {
	_ = album

	c.mu.RLock()
	defer c.mu.RUnlock()

	info, ok := c.entries[Key(artist, title)]
	return info, ok
}

// GetByMBID returns the cached recording with the given MusicBrainz ID.
func (c *Cache) GetByMBID(mbid string) (*recording.Info, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, ok := c.byMBID[mbid]
	return info, ok
}

// Put stores a recording under its derived key, overwriting any previous
// entry. Resolved recordings are indexed by MBID as well.
func (c *Cache) Put(info *recording.Info) {
	if info == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[Key(info.Artist, info.Title)] = info
	if info.MBID != "" {
		c.byMBID[info.MBID] = info
	}
}

// Len returns the number of primary entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Entries returns all cached recordings sorted by artist then title.
func (c *Cache) Entries() []*recording.Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.sortedLocked()
}

// Clear drops every entry and persists the removal by deleting the cache
// file.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*recording.Info)
	c.byMBID = make(map[string]*recording.Info)

	if c.path == "" {
		return nil
	}
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cache file: %w", err)
	}
	return nil
}

// Save writes the cache to disk. An empty cache is never written so a failed
// run cannot truncate a previously good file.
func (c *Cache) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.path == "" || len(c.entries) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmpPath := c.path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write cache header: %w", err)
	}

	for _, info := range c.sortedLocked() {
		row := []string{info.MBID, info.Artist, info.Title, info.Album, strconv.Itoa(info.Length)}
		if err := writer.Write(row); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("write cache row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flush cache: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp cache file: %w", err)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp cache file: %w", err)
	}

	c.logger.Debug("saved track cache",
		logging.Int("entry_count", len(c.entries)),
		logging.String("path", c.path))

	return nil
}

func (c *Cache) sortedLocked() []*recording.Info {
	infos := make([]*recording.Info, 0, len(c.entries))
	for _, info := range c.entries {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Artist != infos[j].Artist {
			return infos[i].Artist < infos[j].Artist
		}
		return infos[i].Title < infos[j].Title
	})
	return infos
}

func (c *Cache) load() error {
	file, err := os.Open(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // fresh start
		}
		return fmt.Errorf("open cache file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	line := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read cache file: %w", err)
		}
		line++

		// Header row
		if line == 1 && len(row) > 0 && row[0] == "mbid" {
			continue
		}

		if len(row) != len(header) {
			c.logger.Warn("skipping malformed cache row",
				logging.Int("line", line),
				logging.Int("fields", len(row)))
			continue
		}

		length, err := strconv.Atoi(row[4])
		if err != nil {
			c.logger.Warn("skipping cache row with bad length",
				logging.Int("line", line),
				logging.String("length", row[4]))
			continue
		}

		info := recording.NewInfo(row[1], row[3], row[2], length, row[0], 0)
		c.entries[Key(info.Artist, info.Title)] = info
		if info.MBID != "" {
			c.byMBID[info.MBID] = info
		}
	}

	c.logger.Debug("loaded track cache",
		logging.Int("entry_count", len(c.entries)),
		logging.String("path", c.path))

	return nil
}

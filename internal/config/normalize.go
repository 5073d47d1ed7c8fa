package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMusicBrainz()
	c.normalizeLastFM()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.BeetsDB, err = expandPath(c.Paths.BeetsDB); err != nil {
		return fmt.Errorf("paths.beets_db: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMusicBrainz() {
	c.MusicBrainz.User = strings.TrimSpace(c.MusicBrainz.User)
	c.MusicBrainz.UserAgent = strings.TrimSpace(c.MusicBrainz.UserAgent)
	c.MusicBrainz.BaseURL = strings.TrimRight(strings.TrimSpace(c.MusicBrainz.BaseURL), "/")

	if c.MusicBrainz.Password == "" {
		c.MusicBrainz.Password = os.Getenv("RATINGSYNC_MB_PASSWORD")
	}
	if c.MusicBrainz.UserAgent == "" {
		c.MusicBrainz.UserAgent = defaultUserAgent
	}
	if c.MusicBrainz.BaseURL == "" {
		c.MusicBrainz.BaseURL = defaultMBBaseURL
	}
	if c.MusicBrainz.AddChunkSize <= 0 {
		c.MusicBrainz.AddChunkSize = defaultAddChunkSize
	}
	if c.MusicBrainz.RemoveChunkSize <= 0 {
		c.MusicBrainz.RemoveChunkSize = defaultRemoveChunkSize
	}
}

func (c *Config) normalizeLastFM() {
	c.LastFM.User = strings.TrimSpace(c.LastFM.User)
	if c.LastFM.APIKey == "" {
		c.LastFM.APIKey = os.Getenv("RATINGSYNC_LASTFM_API_KEY")
	}
	if c.LastFM.LovedRating == 0 {
		c.LastFM.LovedRating = defaultLovedRating
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

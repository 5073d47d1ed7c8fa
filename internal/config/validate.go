package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMusicBrainz(); err != nil {
		return err
	}
	if err := c.validateLastFM(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.CacheDir == "" {
		return errors.New("paths.cache_dir must be set")
	}
	if c.Paths.BeetsDB == "" {
		return errors.New("paths.beets_db must be set")
	}
	return nil
}

func (c *Config) validateMusicBrainz() error {
	if c.MusicBrainz.RateIntervalMS < 0 {
		return errors.New("musicbrainz.rate_interval_ms must not be negative")
	}
	if c.MusicBrainz.User != "" && c.MusicBrainz.Password == "" {
		return errors.New("musicbrainz.password is required when musicbrainz.user is set; use RATINGSYNC_MB_PASSWORD or the config file")
	}
	return nil
}

func (c *Config) validateLastFM() error {
	if c.LastFM.LovedRating < 1 || c.LastFM.LovedRating > 5 {
		return fmt.Errorf("lastfm.loved_rating must be between 1 and 5, got %d", c.LastFM.LovedRating)
	}
	if c.LastFM.User != "" && c.LastFM.APIKey == "" {
		return errors.New("lastfm.api_key is required when lastfm.user is set; use RATINGSYNC_LASTFM_API_KEY or the config file")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

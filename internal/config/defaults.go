package config

const (
	defaultCacheDir        = "~/.cache/ratingsync"
	defaultBeetsDB         = "~/.config/beets/library.db"
	defaultLogDir          = "~/.local/share/ratingsync/logs"
	defaultUserAgent       = "ratingsync/dev"
	defaultMBBaseURL       = "https://musicbrainz.org/ws/2"
	defaultRateIntervalMS  = 1000
	defaultAddChunkSize    = 50
	defaultRemoveChunkSize = 400
	defaultLovedRating     = 4
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir,
			BeetsDB:  defaultBeetsDB,
			LogDir:   defaultLogDir,
		},
		MusicBrainz: MusicBrainz{
			UserAgent:       defaultUserAgent,
			BaseURL:         defaultMBBaseURL,
			RateIntervalMS:  defaultRateIntervalMS,
			AddChunkSize:    defaultAddChunkSize,
			RemoveChunkSize: defaultRemoveChunkSize,
		},
		LastFM: LastFM{
			LovedRating: defaultLovedRating,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

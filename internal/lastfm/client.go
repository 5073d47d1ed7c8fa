package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ratingsync/internal/logging"
)

// DefaultBaseURL is the public Last.fm API root.
const DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

const lovedPageSize = 50

// LovedTrack is one entry of a user's loved-tracks feed.
type LovedTrack struct {
	Artist    string
	Title     string
	MBID      string
	Timestamp int64
}

// LovedPage is one page of the feed, newest first.
type LovedPage struct {
	Tracks     []LovedTrack
	Page       int
	TotalPages int
}

// Client accesses the Last.fm JSON API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL points the client at a different service root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.baseURL = baseURL
		}
	}
}

// WithLogger attaches a logger for per-call diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Last.fm client. The API key is required for every method.
func New(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("lastfm api key required")
	}

	client := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "lastfm")

	return client, nil
}

// lovedResponse mirrors the user.getlovedtracks payload. Last.fm encodes
// numbers as strings throughout.
type lovedResponse struct {
	LovedTracks struct {
		Track []struct {
			Name   string `json:"name"`
			MBID   string `json:"mbid"`
			Artist struct {
				Name string `json:"name"`
			} `json:"artist"`
			Date struct {
				UTS string `json:"uts"`
			} `json:"date"`
		} `json:"track"`
		Attr struct {
			Page       string `json:"page"`
			TotalPages string `json:"totalPages"`
		} `json:"@attr"`
	} `json:"lovedtracks"`
}

type trackInfoResponse struct {
	Track struct {
		Album struct {
			Title string `json:"title"`
		} `json:"album"`
	} `json:"track"`
}

type errorResponse struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// LovedTracks fetches one page of a user's loved tracks. Pages count from
// one.
func (c *Client) LovedTracks(ctx context.Context, user string, page int) (*LovedPage, error) {
	params := url.Values{}
	params.Set("method", "user.getlovedtracks")
	params.Set("user", user)
	params.Set("limit", strconv.Itoa(lovedPageSize))
	params.Set("page", strconv.Itoa(page))

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var decoded lovedResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode loved tracks: %w", err)
	}

	result := &LovedPage{
		Page:       atoiDefault(decoded.LovedTracks.Attr.Page, page),
		TotalPages: atoiDefault(decoded.LovedTracks.Attr.TotalPages, 0),
	}
	for _, track := range decoded.LovedTracks.Track {
		result.Tracks = append(result.Tracks, LovedTrack{
			Artist:    track.Artist.Name,
			Title:     track.Name,
			MBID:      track.MBID,
			Timestamp: atoi64Default(track.Date.UTS, 0),
		})
	}
	return result, nil
}

// WalkLoved iterates a user's loved tracks newest first, calling fn for
// each. fn returning false stops the walk; so does an exhausted feed.
func (c *Client) WalkLoved(ctx context.Context, user string, fn func(LovedTrack) (bool, error)) error {
	for page := 1; ; page++ {
		loved, err := c.LovedTracks(ctx, user, page)
		if err != nil {
			return err
		}
		if len(loved.Tracks) == 0 {
			return nil
		}

		for _, track := range loved.Tracks {
			keep, err := fn(track)
			if err != nil {
				return err
			}
			if !keep {
				return nil
			}
		}

		if loved.TotalPages > 0 && page >= loved.TotalPages {
			return nil
		}
	}
}

// TrackAlbum looks up the album a track belongs to. Last.fm fails this
// call routinely, so any failure yields an empty album rather than an
// error.
func (c *Client) TrackAlbum(ctx context.Context, artist, title string) string {
	params := url.Values{}
	params.Set("method", "track.getInfo")
	params.Set("artist", artist)
	params.Set("track", title)

	body, err := c.get(ctx, params)
	if err != nil {
		c.logger.Debug("album lookup failed",
			logging.String("artist", artist),
			logging.String("title", title),
			logging.Error(err))
		return ""
	}

	var decoded trackInfoResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ""
	}
	return decoded.Track.Album.Title
}

func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lastfm request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("lastfm response: %w", err)
	}

	// Last.fm reports API errors in the body, usually alongside HTTP 200.
	var apiErr errorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != 0 {
		return nil, fmt.Errorf("lastfm error %d: %s", apiErr.Error, apiErr.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lastfm status %s", resp.Status)
	}

	return body, nil
}

func atoiDefault(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func atoi64Default(s string, fallback int64) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

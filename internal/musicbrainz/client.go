package musicbrainz

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
	"sync"
	"time"

	"ratingsync/internal/logging"
)

// DefaultBaseURL is the public MusicBrainz web service root.
const DefaultBaseURL = "https://musicbrainz.org/ws/2"

const searchLimit = 10

// ErrAuthentication marks credential failures; they are the only fatal
// error class in a sync run.
var ErrAuthentication = errors.New("musicbrainz authentication failed")

// Client accesses the MusicBrainz ws/2 API.
type Client struct {
	baseURL    string
	userAgent  string
	user       string
	password   string
	clientID   string
	httpClient *http.Client
	logger     *slog.Logger

	addChunkSize    int
	removeChunkSize int

	// pacing state; the client is the sole owner, nothing is process-wide.
	mu       sync.Mutex
	interval time.Duration
	lastCall time.Time
	calls    int
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
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithCredentials sets the username and password used for collection and
// rating calls.
func WithCredentials(user, password string) Option {
	return func(c *Client) {
		c.user = user
		c.password = password
	}
}

// WithRateInterval sets the minimum delay between requests. Zero disables
// pacing.
func WithRateInterval(interval time.Duration) Option {
	return func(c *Client) {
		c.interval = interval
	}
}

// WithLogger attaches a logger for per-call diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a MusicBrainz client. The user agent identifies this tool to
// the service and is required.
func New(userAgent string, opts ...Option) (*Client, error) {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return nil, errors.New("musicbrainz user agent required")
	}

	client := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  userAgent,
		clientID:   userAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		interval:   time.Second,
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "musicbrainz")

	return client, nil
}

// Calls returns how many rate-limited requests this client has made.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Authenticate verifies the configured credentials with a collection list
// request. Callers treat a failure here as fatal.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.user == "" || c.password == "" {
		return fmt.Errorf("%w: no credentials configured", ErrAuthentication)
	}
	if _, err := c.ListCollections(ctx); err != nil {
		return err
	}
	return nil
}

// SearchReleaseGroups searches release groups by artist and release name.
func (c *Client) SearchReleaseGroups(ctx context.Context, artist, release string, strict bool) ([]ReleaseGroup, error) {
	query := buildQuery([][2]string{
		{"artist", artist},
		{"releasegroup", release},
	}, strict)

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(searchLimit))

	var payload releaseGroupSearchResponse
	if err := c.get(ctx, "/release-group", params, false, &payload); err != nil {
		return nil, fmt.Errorf("search release groups: %w", err)
	}
	return payload.ReleaseGroups, nil
}

// SearchRecordings searches recordings by artist and title. No release
// constraint is applied; passing one tends to poison recording results.
func (c *Client) SearchRecordings(ctx context.Context, artist, title string, strict bool) ([]RecordingResult, error) {
	query := buildQuery([][2]string{
		{"artist", artist},
		{"recording", title},
	}, strict)

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(searchLimit))

	var payload recordingSearchResponse
	if err := c.get(ctx, "/recording", params, false, &payload); err != nil {
		return nil, fmt.Errorf("search recordings: %w", err)
	}
	return payload.Recordings, nil
}

// GetRelease fetches a release with its track list and artist credits.
func (c *Client) GetRelease(ctx context.Context, id string) (*Release, error) {
	params := url.Values{}
	params.Set("inc", "recordings+artist-credits+media")

	var payload Release
	if err := c.get(ctx, "/release/"+url.PathEscape(id), params, false, &payload); err != nil {
		return nil, fmt.Errorf("get release %s: %w", id, err)
	}
	return &payload, nil
}

// GetRecording fetches a recording with its artists and releases.
func (c *Client) GetRecording(ctx context.Context, id string) (*RecordingResult, error) {
	params := url.Values{}
	params.Set("inc", "artists+releases")

	var payload RecordingResult
	if err := c.get(ctx, "/recording/"+url.PathEscape(id), params, false, &payload); err != nil {
		return nil, fmt.Errorf("get recording %s: %w", id, err)
	}
	return &payload, nil
}

// ListCollections returns the authenticated user's collections.
func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	var payload collectionListResponse
	if err := c.get(ctx, "/collection", url.Values{}, true, &payload); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return payload.Collections, nil
}

// CollectionRecordings fetches one page of a recording collection and the
// total count the service reports.
func (c *Client) CollectionRecordings(ctx context.Context, mbid string, limit, offset int) ([]CollectionEntry, int, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	var payload collectionRecordingsResponse
	path := "/collection/" + url.PathEscape(mbid) + "/recordings"
	if err := c.get(ctx, path, params, true, &payload); err != nil {
		return nil, 0, fmt.Errorf("collection recordings: %w", err)
	}
	return payload.Recordings, payload.RecordingCount, nil
}

// get performs one paced GET request and decodes the JSON payload.
func (c *Client) get(ctx context.Context, path string, params url.Values, authed bool, out any) error {
	params.Set("fmt", "json")

	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	endpoint.RawQuery = params.Encode()

	resp, err := c.do(ctx, http.MethodGet, endpoint.String(), nil, authed)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrAuthentication
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("musicbrainz returned %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// do paces, counts, and executes one request.
func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, authed bool) (*http.Response, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/xml; charset=utf-8")
	}
	if authed {
		req.SetBasicAuth(c.user, c.password)
	}

	c.logger.Debug("rate limited call",
		logging.String("method", method),
		logging.Int("call", c.Calls()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

// pace blocks until the minimum interval since the previous request has
// elapsed and increments the call counter.
func (c *Client) pace(ctx context.Context) error {
	c.mu.Lock()
	wait := c.interval - time.Since(c.lastCall)
	if wait > 0 {
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		c.mu.Lock()
	}
	c.lastCall = time.Now()
	c.calls++
	c.mu.Unlock()
	return nil
}

// buildQuery assembles a Lucene field query. Strict mode quotes every term
// and joins with AND; relaxed mode leaves terms bare for the server's
// default scoring.
func buildQuery(fields [][2]string, strict bool) string {
	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		value := strings.TrimSpace(field[1])
		if value == "" {
			continue
		}
		if strict {
			terms = append(terms, fmt.Sprintf("%s:%q", field[0], value))
		} else {
			terms = append(terms, fmt.Sprintf("%s:(%s)", field[0], value))
		}
	}
	if strict {
		return strings.Join(terms, " AND ")
	}
	return strings.Join(terms, " ")
}

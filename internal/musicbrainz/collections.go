package musicbrainz

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"ratingsync/internal/logging"
	"ratingsync/internal/recording"
)

// Service-imposed batch limits for collection edits. Neither is documented
// upstream; both are kept configurable pending confirmation.
const (
	DefaultAddChunkSize    = 50
	DefaultRemoveChunkSize = 400
)

// WithChunkSizes overrides the collection edit batch limits. Non-positive
// values keep the defaults.
func WithChunkSizes(add, remove int) Option {
	return func(c *Client) {
		if add > 0 {
			c.addChunkSize = add
		}
		if remove > 0 {
			c.removeChunkSize = remove
		}
	}
}

// AddCollectionRecordings adds recordings to a collection, splitting the id
// list into service-acceptable chunks.
func (c *Client) AddCollectionRecordings(ctx context.Context, collectionID string, mbids []string) error {
	return c.editCollection(ctx, http.MethodPut, collectionID, mbids, c.chunkSize(c.addChunkSize, DefaultAddChunkSize))
}

// RemoveCollectionRecordings removes recordings from a collection in
// chunks.
func (c *Client) RemoveCollectionRecordings(ctx context.Context, collectionID string, mbids []string) error {
	return c.editCollection(ctx, http.MethodDelete, collectionID, mbids, c.chunkSize(c.removeChunkSize, DefaultRemoveChunkSize))
}

func (c *Client) chunkSize(configured, fallback int) int {
	if configured > 0 {
		return configured
	}
	return fallback
}

func (c *Client) editCollection(ctx context.Context, method, collectionID string, mbids []string, chunk int) error {
	for start := 0; start < len(mbids); start += chunk {
		end := min(start+chunk, len(mbids))
		batch := mbids[start:end]

		endpoint := fmt.Sprintf("%s/collection/%s/recordings/%s?client=%s",
			c.baseURL,
			url.PathEscape(collectionID),
			strings.Join(batch, ";"),
			url.QueryEscape(c.clientID))

		resp, err := c.do(ctx, method, endpoint, nil, true)
		if err != nil {
			return fmt.Errorf("edit collection %s: %w", collectionID, err)
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			return ErrAuthentication
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("collection edit returned %d", resp.StatusCode)
		}

		c.logger.Debug("edited collection",
			logging.String("collection", collectionID),
			logging.String("method", method),
			logging.Int("batch_size", len(batch)))
	}
	return nil
}

type ratingSubmission struct {
	XMLName    xml.Name          `xml:"metadata"`
	XMLNS      string            `xml:"xmlns,attr"`
	Recordings []ratingRecording `xml:"recording-list>recording"`
}

type ratingRecording struct {
	ID     string `xml:"id,attr"`
	Rating int    `xml:"user-rating"`
}

// SubmitRatings submits star ratings for recordings. Stars convert to the
// 0-100 scale the rating endpoint expects.
func (c *Client) SubmitRatings(ctx context.Context, stars map[string]int) error {
	if len(stars) == 0 {
		return nil
	}

	mbids := make([]string, 0, len(stars))
	for mbid := range stars {
		mbids = append(mbids, mbid)
	}
	sort.Strings(mbids)

	submission := ratingSubmission{XMLNS: "http://musicbrainz.org/ns/mmd-2.0#"}
	for _, mbid := range mbids {
		submission.Recordings = append(submission.Recordings, ratingRecording{
			ID:     mbid,
			Rating: recording.ToHundredScale(stars[mbid]),
		})
	}

	body, err := xml.Marshal(submission)
	if err != nil {
		return fmt.Errorf("marshal ratings: %w", err)
	}

	endpoint := fmt.Sprintf("%s/rating?client=%s", c.baseURL, url.QueryEscape(c.clientID))
	resp, err := c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(append([]byte(xml.Header), body...)), true)
	if err != nil {
		return fmt.Errorf("submit ratings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrAuthentication
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rating submission returned %d", resp.StatusCode)
	}

	c.logger.Debug("submitted ratings", logging.Int("count", len(stars)))
	return nil
}

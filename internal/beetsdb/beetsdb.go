package beetsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	_ "modernc.org/sqlite"

	"ratingsync/internal/library"
)

// DB provides library access backed by a beets SQLite database.
type DB struct {
	db   *sql.DB
	path string
}

var _ library.Library = (*DB)(nil)

// Open connects to the beets database at path.
func Open(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("beets database path required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open beets db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	return &DB{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Items returns all library items matching the filter in id order.
func (d *DB) Items(ctx context.Context, filter library.Filter) ([]library.Item, error) {
	if filter.Empty() {
		return nil, errors.New("refusing to enumerate the whole library: empty filter")
	}

	var (
		conditions []string
		args       []any
	)
	if filter.MBID != "" {
		conditions = append(conditions, "mb_trackid = ?")
		args = append(args, filter.MBID)
	}
	if filter.TitleSubstring != "" {
		conditions = append(conditions, "title LIKE ? ESCAPE '\\'")
		args = append(args, likePattern(filter.TitleSubstring))
	}
	if filter.ArtistSubstring != "" {
		conditions = append(conditions, "artist LIKE ? ESCAPE '\\'")
		args = append(args, likePattern(filter.ArtistSubstring))
	}
	if filter.AlbumSubstring != "" {
		conditions = append(conditions, "album LIKE ? ESCAPE '\\'")
		args = append(args, likePattern(filter.AlbumSubstring))
	}
	if filter.HasLengthRange {
		conditions = append(conditions, "length BETWEEN ? AND ?")
		args = append(args, float64(filter.LengthMin), float64(filter.LengthMax))
	}

	query := `SELECT i.id, i.artist, i.album, i.title, i.length, i.tracktotal, i.mb_trackid,
		COALESCE((SELECT value FROM item_attributes WHERE entity_id = i.id AND key = 'rating'), '0')
		FROM items i WHERE ` + strings.Join(conditions, " AND ") + " ORDER BY i.id"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []library.Item
	for rows.Next() {
		var (
			item   library.Item
			length sql.NullFloat64
			total  sql.NullInt64
			mbid   sql.NullString
			rating sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Artist, &item.Album, &item.Title,
			&length, &total, &mbid, &rating); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.Length = int(math.Round(length.Float64))
		item.TrackTotal = int(total.Int64)
		item.MBID = mbid.String
		if rating.Valid {
			fmt.Sscanf(rating.String, "%d", &item.Rating)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	return items, nil
}

// SetRating upserts the rating flexible attribute for an item.
func (d *DB) SetRating(ctx context.Context, itemID int64, rating int) error {
	value := fmt.Sprintf("%d", rating)

	res, err := d.db.ExecContext(ctx,
		`UPDATE item_attributes SET value = ? WHERE entity_id = ? AND key = 'rating'`,
		value, itemID)
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := d.db.ExecContext(ctx,
			`INSERT INTO item_attributes (entity_id, key, value) VALUES (?, 'rating', ?)`,
			itemID, value); err != nil {
			return fmt.Errorf("insert rating: %w", err)
		}
	}

	return nil
}

// likePattern wraps a substring for a LIKE query, escaping LIKE
// metacharacters in the needle.
func likePattern(needle string) string {
	needle = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(needle)
	return "%" + needle + "%"
}

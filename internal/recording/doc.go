// Package recording defines the identity and metadata units shared by every
// resolution and aggregation component: Info for fully described tracks,
// Recording for bare catalog entries, and the star-rating scale helpers.
package recording

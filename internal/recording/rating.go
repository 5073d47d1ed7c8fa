package recording

// Band names of the per-star remote collections, ordered from one to five
// stars.
var bandNames = [5]string{"1 Star", "2 Star", "3 Star", "4 Star", "5 Star"}

// BandNames returns the collection names for each star rating in ascending
// order.
func BandNames() []string {
	names := make([]string, len(bandNames))
	copy(names[:], bandNames[:])
	return names
}

// BandName returns the collection name for a star rating between 1 and 5,
// or the empty string for anything out of range.
func BandName(stars int) string {
	if stars < 1 || stars > len(bandNames) {
		return ""
	}
	return bandNames[stars-1]
}

// ToHundredScale converts a 0-5 star rating to the 0-100 scale some services
// expect: clamp to [0,5], multiply by 20.
func ToHundredScale(stars int) int {
	if stars < 0 {
		stars = 0
	}
	if stars > 5 {
		stars = 5
	}
	return stars * 20
}

// Package models defines the data types shared across the scraper pipeline.
package models

// Review represents a single customer review extracted from a listing page.
//
// All fields are kept as strings: values are emitted to CSV untyped, exactly
// as they appear on the page (dates are the only reformatted fields).
type Review struct {
	// ID is the path segment after /reviews/ in the review permalink. It is
	// unique per listing and drives run-scoped de-duplication. Not emitted.
	ID string

	// AvatarURL is the source URL of the reviewer's avatar image. It only
	// drives avatar resolution and is cleared before emission.
	AvatarURL string

	Name             string
	ReviewsCount     string
	Rating           string
	Title            string
	Text             string
	Date             string
	DateOfExperience string
	Country          string

	// AvatarFile is the relative path of the downloaded avatar, set during
	// finalization. Falls back to images/no_avatar.png.
	AvatarFile string
}

// AvatarEntry pairs an avatar image URL with the reviewer display name used
// to derive its local filename.
type AvatarEntry struct {
	URL  string
	Name string
}

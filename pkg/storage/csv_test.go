package storage

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tpscraper/pkg/logger"
	"tpscraper/pkg/models"
)

func validReview(id string) models.Review {
	return models.Review{
		ID:               id,
		Name:             "Alice Example",
		ReviewsCount:     "12",
		Rating:           "5",
		Title:            "Great service",
		Text:             "Everything arrived on time.",
		Date:             "11-09-2023",
		DateOfExperience: "11-09-2023",
		Country:          "US",
		AvatarFile:       NoAvatarFile,
	}
}

func TestWriteValidRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "output.csv")
	writer := NewCSVWriter(path, t.TempDir(), logger.NewNop())

	err := writer.Write([]models.Review{validReview("a"), validReview("b")})
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"name", "reviews_count", "rating", "title", "text",
		"date", "date_of_experience", "country", "avatar_file",
	}, records[0])

	assert.Equal(t, []string{
		"Alice Example", "12", "5", "Great service",
		"Everything arrived on time.", "11-09-2023", "11-09-2023",
		"US", NoAvatarFile,
	}, records[1])
}

func TestWriteDropsInvalidRows(t *testing.T) {
	ratingSix := validReview("a")
	ratingSix.Rating = "6"

	ratingText := validReview("b")
	ratingText.Rating = "abc"

	wrongDateFormat := validReview("c")
	wrongDateFormat.Date = "2024-01-01"

	missingName := validReview("d")
	missingName.Name = ""

	missingAvatarFile := validReview("e")
	missingAvatarFile.AvatarFile = "images/definitely_missing.jpg"

	path := filepath.Join(t.TempDir(), "output.csv")
	writer := NewCSVWriter(path, t.TempDir(), logger.NewNop())

	err := writer.Write([]models.Review{
		ratingSix, ratingText, wrongDateFormat, missingName, missingAvatarFile,
		validReview("f"),
	})
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2, "header plus the single valid row")
}

func TestWriteAllInvalidFails(t *testing.T) {
	bad := validReview("a")
	bad.Rating = "0"

	path := filepath.Join(t.TempDir(), "output.csv")
	writer := NewCSVWriter(path, t.TempDir(), logger.NewNop())

	err := writer.Write([]models.Review{bad})
	assert.True(t, errors.Is(err, ErrNoValidRows))

	err = writer.Write(nil)
	assert.True(t, errors.Is(err, ErrNoValidRows))
}

func TestValidateRow(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Review)
		want   bool
	}{
		{"valid with placeholder avatar", func(r *models.Review) {}, true},
		{"rating above range", func(r *models.Review) { r.Rating = "6" }, false},
		{"rating below range", func(r *models.Review) { r.Rating = "0" }, false},
		{"rating not numeric", func(r *models.Review) { r.Rating = "abc" }, false},
		{"rating empty", func(r *models.Review) { r.Rating = "" }, false},
		{"date wrong format", func(r *models.Review) { r.Date = "2024-01-01" }, false},
		{"date empty is allowed", func(r *models.Review) { r.Date = "" }, true},
		{"experience date raw fallback text", func(r *models.Review) { r.DateOfExperience = "last spring" }, false},
		{"experience date empty is allowed", func(r *models.Review) { r.DateOfExperience = "" }, true},
		{"empty name", func(r *models.Review) { r.Name = "" }, false},
		{"empty avatar file", func(r *models.Review) { r.AvatarFile = "" }, false},
		{"missing avatar file on disk", func(r *models.Review) { r.AvatarFile = "images/nope.jpg" }, false},
	}

	writer := NewCSVWriter(filepath.Join(t.TempDir(), "output.csv"), t.TempDir(), logger.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			review := validReview("x")
			tt.mutate(&review)
			assert.Equal(t, tt.want, writer.validateRow(review))
		})
	}
}

// Avatar references resolve against the configured images directory, not the
// process working directory, so rows survive with a non-default --images-dir.
func TestValidateRowChecksConfiguredImagesDirectory(t *testing.T) {
	imagesDir := filepath.Join(t.TempDir(), "custom-images")
	require.NoError(t, os.MkdirAll(imagesDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(imagesDir, "alice.jpg"), []byte("img"), 0644))

	writer := NewCSVWriter(filepath.Join(t.TempDir(), "output.csv"), imagesDir, logger.NewNop())

	review := validReview("x")
	review.AvatarFile = "images/alice.jpg"
	assert.True(t, writer.validateRow(review))

	review.AvatarFile = "images/missing.jpg"
	assert.False(t, writer.validateRow(review))
}

package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"tpscraper/pkg/logger"
	"tpscraper/pkg/models"
)

// ErrNoValidRows is returned when every row in a write batch fails
// validation (or the batch is empty).
var ErrNoValidRows = errors.New("no valid rows to write")

// NoAvatarFile is the placeholder avatar path for reviews whose avatar
// could not be resolved.
const NoAvatarFile = "images/no_avatar.png"

var emittedDatePattern = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)

// csvHeader fixes the column order of the output file. The avatar source
// URL is internal state and is never emitted.
var csvHeader = []string{
	"name",
	"reviews_count",
	"rating",
	"title",
	"text",
	"date",
	"date_of_experience",
	"country",
	"avatar_file",
}

// CSVWriter writes finalized review records to a CSV file with per-row
// validation
type CSVWriter struct {
	filePath  string
	imagesDir string
	logger    logger.Logger
}

// NewCSVWriter creates a CSVWriter targeting the given path. Avatar file
// references are validated against imagesDir, where downloads actually land.
func NewCSVWriter(filePath, imagesDir string, log logger.Logger) *CSVWriter {
	if log == nil {
		log = logger.GetLogger()
	}
	return &CSVWriter{filePath: filePath, imagesDir: imagesDir, logger: log}
}

// Write validates and writes the reviews. Invalid rows are dropped and
// counted in the log; the write only fails when no row survives validation.
func (w *CSVWriter) Write(reviews []models.Review) error {
	valid := make([]models.Review, 0, len(reviews))
	for _, r := range reviews {
		if w.validateRow(r) {
			valid = append(valid, r)
		}
	}

	if invalid := len(reviews) - len(valid); invalid > 0 {
		w.logger.WarnWithFields("invalid rows dropped from output", map[string]interface{}{
			"count": invalid,
			"file":  w.filePath,
		})
	}
	if len(valid) == 0 {
		return ErrNoValidRows
	}

	dir := filepath.Dir(w.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(w.filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range valid {
		row := []string{
			r.Name,
			r.ReviewsCount,
			r.Rating,
			r.Title,
			r.Text,
			r.Date,
			r.DateOfExperience,
			r.Country,
			r.AvatarFile,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	w.logger.InfoWithFields("reviews written", map[string]interface{}{
		"file": w.filePath,
		"rows": len(valid),
	})
	return nil
}

// validateRow applies the pre-write row checks: non-empty name, numeric
// rating 1-5, DD-MM-YYYY dates when present, and an avatar file that is
// either the placeholder or present in the images directory.
func (w *CSVWriter) validateRow(r models.Review) bool {
	if r.Name == "" {
		return false
	}

	rating, err := strconv.ParseFloat(r.Rating, 64)
	if err != nil || rating < 1 || rating > 5 {
		return false
	}

	for _, date := range []string{r.Date, r.DateOfExperience} {
		if date != "" && !emittedDatePattern.MatchString(date) {
			return false
		}
	}

	if r.AvatarFile == "" {
		return false
	}
	if r.AvatarFile != NoAvatarFile {
		// The emitted path is always images/{file}; the file itself lives in
		// the configured images directory.
		if _, err := os.Stat(filepath.Join(w.imagesDir, filepath.Base(r.AvatarFile))); err != nil {
			return false
		}
	}
	return true
}

package trustpilot

import (
	"time"

	"github.com/araddon/dateparse"
)

const outputDateLayout = "02-01-2006"

// FormatReviewDate normalizes the machine-readable datetime attribute of a
// review timestamp to DD-MM-YYYY. Strict RFC 3339 is tried first, then a
// lenient parse for ISO variants without an offset.
func FormatReviewDate(raw string) (string, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t, err = dateparse.ParseAny(raw)
		if err != nil {
			return "", err
		}
	}
	return t.Format(outputDateLayout), nil
}

// FormatExperienceDate normalizes a free-text "date of experience" string
// such as "September 11, 2023" to DD-MM-YYYY. When parsing fails the raw
// text is returned unmodified; this intentionally differs from the
// review-date fallback, which yields an empty string.
func FormatExperienceDate(raw string) string {
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return raw
	}
	return t.Format(outputDateLayout)
}

package trustpilot

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"tpscraper/pkg/logger"
	"tpscraper/pkg/models"
)

// Ordinary review cards carry the review-card-paper marker; featured
// (promoted) cards do not and must be excluded.
const reviewCardSelector = `article[data-service-review-card-paper="true"]`

var (
	reviewIDPattern  = regexp.MustCompile(`(?i)/reviews/([a-z0-9]+)`)
	ratingAltPattern = regexp.MustCompile(`Rated (\d+) out of \d+ stars`)
	digitsPattern    = regexp.MustCompile(`\d+`)
)

// Extractor parses review records out of listing page markup
type Extractor struct {
	logger logger.Logger
}

// NewExtractor creates an Extractor
func NewExtractor(log logger.Logger) *Extractor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Extractor{logger: log}
}

// Extract locates every ordinary review container in the markup and returns
// the extracted records plus the avatar (URL, name) pairs encountered.
//
// A node without a resolvable review ID yields no record, but its avatar
// pair is still reported: the avatar map accumulates per extracted node, not
// per accepted record.
func (e *Extractor) Extract(markup string) ([]models.Review, []models.AvatarEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, nil, &Error{Kind: ErrorKindParse, Err: err}
	}

	var reviews []models.Review
	var avatars []models.AvatarEntry

	doc.Find(reviewCardSelector).Each(func(_ int, node *goquery.Selection) {
		avatarURL, _ := node.Find("div.avatar_imageWrapper__9hWrp img").First().Attr("src")
		name := strings.TrimSpace(node.Find(".styles_consumerName__xKr9c").First().Text())

		if avatarURL != "" && name != "" {
			avatars = append(avatars, models.AvatarEntry{URL: avatarURL, Name: name})
		}

		review := models.Review{
			AvatarURL:        avatarURL,
			Name:             name,
			ReviewsCount:     e.extractReviewsCount(node),
			Rating:           e.extractRating(node),
			Title:            strings.TrimSpace(node.Find(`h2[data-service-review-title-typography="true"]`).First().Text()),
			Text:             strings.TrimSpace(node.Find(".styles_reviewContent__tuXiN p").First().Text()),
			Date:             e.extractReviewDate(node),
			DateOfExperience: e.extractExperienceDate(node),
			Country:          strings.TrimSpace(node.Find(`span[data-consumer-country-typography="true"]`).First().Text()),
		}

		review.ID = extractReviewID(node)
		if review.ID == "" {
			return
		}
		reviews = append(reviews, review)
	})

	return reviews, avatars, nil
}

// extractReviewsCount returns the first run of digits in the reviews-count
// element, or empty
func (e *Extractor) extractReviewsCount(node *goquery.Selection) string {
	text := node.Find(`span[data-consumer-reviews-count-typography="true"]`).First().Text()
	return digitsPattern.FindString(text)
}

// extractRating prefers the numeric rating attribute and falls back to the
// accessible "Rated N out of 5 stars" image label
func (e *Extractor) extractRating(node *goquery.Selection) string {
	if rating, ok := node.Find("div[data-service-review-rating]").First().Attr("data-service-review-rating"); ok {
		return rating
	}
	alt, ok := node.Find(`img[alt^="Rated"]`).First().Attr("alt")
	if !ok {
		return ""
	}
	if m := ratingAltPattern.FindStringSubmatch(alt); m != nil {
		return m[1]
	}
	return ""
}

func (e *Extractor) extractReviewDate(node *goquery.Selection) string {
	raw, ok := node.Find("time[data-service-review-date-time-ago]").First().Attr("datetime")
	if !ok || raw == "" {
		return ""
	}
	date, err := FormatReviewDate(raw)
	if err != nil {
		e.logger.WarnWithFields("review date parse failed", map[string]interface{}{
			"datetime": raw,
			"error":    err.Error(),
		})
		return ""
	}
	return date
}

func (e *Extractor) extractExperienceDate(node *goquery.Selection) string {
	raw := strings.TrimSpace(node.Find(`p[data-service-review-date-of-experience-typography="true"] span`).First().Text())
	if raw == "" {
		return ""
	}
	return FormatExperienceDate(raw)
}

// extractReviewID captures the path segment after /reviews/ in the review
// permalink href
func extractReviewID(node *goquery.Selection) string {
	href, ok := node.Find("a[data-review-title-typography]").First().Attr("href")
	if !ok {
		return ""
	}
	if m := reviewIDPattern.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}

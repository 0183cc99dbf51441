// Package scraper orchestrates pagination, extraction and avatar resolution
// for review listing URLs.
package scraper

import (
	"fmt"
	"strings"

	"tpscraper/internal/downloader"
	"tpscraper/pkg/config"
	"tpscraper/pkg/logger"
	"tpscraper/pkg/models"
	"tpscraper/pkg/storage"
	"tpscraper/pkg/trustpilot"
)

// Scraper walks a listing's pages sequentially, accumulates de-duplicated
// reviews, then resolves avatars in one batched call.
type Scraper struct {
	fetcher   PageFetcher
	extractor ReviewExtractor
	resolver  AvatarResolver
	pageLimit int
	logger    logger.Logger
}

// New wires a Scraper from configuration: HTTP client, extractor, image
// storage manager and download pool.
func New(cfg *config.Config, log logger.Logger) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	client := trustpilot.NewClient(cfg.HTTP, log)

	manager, err := storage.NewManager(cfg.Output.ImagesDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image storage: %w", err)
	}

	pool := downloader.NewPool(cfg.Download.ConcurrentDownloads, client, manager, log)

	return &Scraper{
		fetcher:   client,
		extractor: trustpilot.NewExtractor(log),
		resolver:  pool,
		pageLimit: cfg.Scrape.PageLimit,
		logger:    log,
	}, nil
}

// ScrapeListing processes every page of one listing URL up to the page
// limit, stopping early on the first fetch failure while keeping prior
// pages' results. It returns finalized, emission-ready records in
// first-seen order.
func (s *Scraper) ScrapeListing(listingURL string) ([]models.Review, error) {
	byID := make(map[string]models.Review)
	var order []string
	avatarNames := make(map[string]string)

	for page := 1; page <= s.pageLimit; page++ {
		markup, err := s.fetcher.FetchPage(pageURL(listingURL, page))
		if err != nil {
			// A failed page ends pagination for this listing; everything
			// accumulated so far is kept.
			s.logger.WarnWithFields("page fetch failed, stopping pagination", map[string]interface{}{
				"url":   listingURL,
				"page":  page,
				"error": err.Error(),
			})
			break
		}

		reviews, avatars, err := s.extractor.Extract(markup)
		if err != nil {
			return nil, fmt.Errorf("failed to extract reviews from page %d: %w", page, err)
		}

		for _, entry := range avatars {
			if _, seen := avatarNames[entry.URL]; !seen {
				avatarNames[entry.URL] = entry.Name
			}
		}

		added := 0
		for _, review := range reviews {
			if _, seen := byID[review.ID]; seen {
				continue
			}
			byID[review.ID] = review
			order = append(order, review.ID)
			added++
		}

		s.logger.DebugWithFields("page extracted", map[string]interface{}{
			"url":      listingURL,
			"page":     page,
			"reviews":  len(reviews),
			"accepted": added,
		})
	}

	outcomes := s.resolver.ResolveAll(avatarNames)

	return finalize(byID, order, outcomes), nil
}

// finalize stitches avatar resolution outcomes back onto the accumulated
// reviews, in first-seen insertion order. Unresolved avatars fall back to
// the placeholder; the transient source URL is discarded.
func finalize(byID map[string]models.Review, order []string, outcomes map[string]downloader.Outcome) []models.Review {
	results := make([]models.Review, 0, len(order))
	for _, id := range order {
		review := byID[id]
		if outcome, ok := outcomes[review.AvatarURL]; ok && outcome.Resolved() {
			review.AvatarFile = "images/" + outcome.Filename
		} else {
			review.AvatarFile = storage.NoAvatarFile
		}
		review.AvatarURL = ""
		results = append(results, review)
	}
	return results
}

// pageURL builds the URL for one page of a listing: page 1 is the bare
// listing URL, later pages append a page query parameter.
func pageURL(base string, page int) string {
	if page <= 1 {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", base, sep, page)
}

package scraper

import (
	"tpscraper/internal/downloader"
	"tpscraper/pkg/models"
)

// PageFetcher retrieves raw markup for one URL
type PageFetcher interface {
	FetchPage(url string) (string, error)
}

// ReviewExtractor extracts review records and avatar pairs from markup
type ReviewExtractor interface {
	Extract(markup string) ([]models.Review, []models.AvatarEntry, error)
}

// AvatarResolver resolves a URL->name avatar map to local filenames
type AvatarResolver interface {
	ResolveAll(avatars map[string]string) map[string]downloader.Outcome
}

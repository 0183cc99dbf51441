package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tpscraper/pkg/config"
	"tpscraper/pkg/logger"
	"tpscraper/pkg/models"
	"tpscraper/pkg/scraper"
	"tpscraper/pkg/storage"
)

var (
	inputFile  string
	dataDir    string
	imagesDir  string
	pageLimit  int
	concurrent int
	userAgent  string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape every listing URL from the input file and write the CSV",
	Long: `Scrape walks each listing URL page by page up to the page limit,
de-duplicates reviews by ID across pages, downloads reviewer avatars and
writes one consolidated CSV for the whole run.

A listing whose processing fails does not abort the run; the scraper
moves on to the next URL.`,
	Example: `  # Scrape using the default input file (data/input_urls.csv)
  tpscraper scrape

  # Custom input file and output locations
  tpscraper scrape --input urls.csv --data-dir ./out --images-dir ./out/images

  # Lower the pagination ceiling
  tpscraper scrape --page-limit 10`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape()
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&inputFile, "input", "i", "", "input file of listing URLs")
	scrapeCmd.Flags().StringVar(&dataDir, "data-dir", "", "directory for the output CSV")
	scrapeCmd.Flags().StringVar(&imagesDir, "images-dir", "", "directory for downloaded avatars")
	scrapeCmd.Flags().IntVar(&pageLimit, "page-limit", 0, "maximum page number attempted per listing URL")
	scrapeCmd.Flags().IntVar(&concurrent, "concurrent", 0, "number of concurrent avatar downloads")
	scrapeCmd.Flags().StringVar(&userAgent, "user-agent", "", "User-Agent header for all requests")
}

func runScrape() error {
	flags := make(map[string]interface{})
	if inputFile != "" {
		flags["input-file"] = inputFile
	}
	if dataDir != "" {
		flags["data-directory"] = dataDir
	}
	if imagesDir != "" {
		flags["images-directory"] = imagesDir
	}
	if pageLimit > 0 {
		flags["page-limit"] = pageLimit
	}
	if concurrent > 0 {
		flags["concurrent-downloads"] = concurrent
	}
	if userAgent != "" {
		flags["user-agent"] = userAgent
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if logFile != "" {
		flags["log-file"] = logFile
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	// The input URL file is the one fatal prerequisite of a run.
	urls, err := storage.ReadListingURLs(cfg.Output.InputFile)
	if err != nil {
		return err
	}

	s, err := scraper.New(cfg, log)
	if err != nil {
		return err
	}

	var allReviews []models.Review
	for _, url := range urls {
		fmt.Printf("Processing URL: %s\n", url)

		reviews, err := s.ScrapeListing(url)
		if err != nil {
			fmt.Printf("Error processing URL %s: %v\n", url, err)
			log.WithError(err).WithField("url", url).Error("listing scrape failed")
			continue
		}

		fmt.Printf("Found %d reviews\n", len(reviews))
		if len(reviews) > 0 {
			log.DebugWithFields("first review", map[string]interface{}{
				"url":    url,
				"review": fmt.Sprintf("%+v", reviews[0]),
			})
			allReviews = append(allReviews, reviews...)
		}
	}

	if len(allReviews) == 0 {
		fmt.Println("No reviews collected, nothing to write.")
		return nil
	}

	writer := storage.NewCSVWriter(cfg.CSVPath(), cfg.Output.ImagesDirectory, log)
	if err := writer.Write(allReviews); err != nil {
		fmt.Println("Failed to write the CSV file!")
		log.WithError(err).Error("CSV write failed")
		return nil
	}

	fmt.Printf("Reviews successfully written to %s\n", cfg.CSVPath())
	return nil
}

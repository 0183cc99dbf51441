package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadListingURLs reads the line-oriented input file of listing URLs, one
// URL as the first field per line. A missing file is fatal for the run.
func ReadListingURLs(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input URL file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var urls []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input URL file: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		if url := strings.TrimSpace(record[0]); url != "" {
			urls = append(urls, url)
		}
	}

	return urls, nil
}

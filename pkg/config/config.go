package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the review scraper
type Config struct {
	// HTTP client settings
	HTTP HTTPConfig `yaml:"http" json:"http"`

	// Scrape behavior
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Avatar download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Input/output locations
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// HTTPConfig holds HTTP client configuration
type HTTPConfig struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
}

// ScrapeConfig holds pagination behavior configuration
type ScrapeConfig struct {
	// PageLimit is the maximum page number attempted per listing URL, a
	// safety bound against runaway pagination.
	PageLimit int `yaml:"page_limit" json:"page_limit"`
}

// DownloadConfig holds avatar download configuration
type DownloadConfig struct {
	ConcurrentDownloads int `yaml:"concurrent_downloads" json:"concurrent_downloads"`
}

// OutputConfig holds input/output path configuration
type OutputConfig struct {
	DataDirectory   string `yaml:"data_directory" json:"data_directory"`
	ImagesDirectory string `yaml:"images_directory" json:"images_directory"`
	CSVFile         string `yaml:"csv_file" json:"csv_file"`
	InputFile       string `yaml:"input_file" json:"input_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			ConnectTimeout: 10 * time.Second,
			Timeout:        30 * time.Second,
			UserAgent:      "tpscraper/1.0",
		},
		Scrape: ScrapeConfig{
			PageLimit: 400,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 8,
		},
		Output: OutputConfig{
			DataDirectory:   "./data",
			ImagesDirectory: "./images",
			CSVFile:         "output.csv",
			InputFile:       "data/input_urls.csv",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// CSVPath returns the full path of the output CSV file
func (c *Config) CSVPath() string {
	return filepath.Join(c.Output.DataDirectory, c.Output.CSVFile)
}

// LoadFromEnv loads configuration overrides from environment variables
func (c *Config) LoadFromEnv() error {
	// A .env file is optional; a missing one is not an error
	_ = godotenv.Load()

	if ua := os.Getenv("TPSCRAPER_USER_AGENT"); ua != "" {
		c.HTTP.UserAgent = ua
	}
	if limit := os.Getenv("TPSCRAPER_PAGE_LIMIT"); limit != "" {
		var val int
		fmt.Sscanf(limit, "%d", &val)
		if val > 0 {
			c.Scrape.PageLimit = val
		}
	}
	if concurrent := os.Getenv("TPSCRAPER_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}
	if dataDir := os.Getenv("TPSCRAPER_DATA_DIR"); dataDir != "" {
		c.Output.DataDirectory = dataDir
	}
	if imagesDir := os.Getenv("TPSCRAPER_IMAGES_DIR"); imagesDir != "" {
		c.Output.ImagesDirectory = imagesDir
	}
	if inputFile := os.Getenv("TPSCRAPER_INPUT_FILE"); inputFile != "" {
		c.Output.InputFile = inputFile
	}
	if logLevel := os.Getenv("TPSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("TPSCRAPER_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile looks for a config file in default locations
func (c *Config) findConfigFile() string {
	candidates := []string{
		".tpscraper.yaml",
		".tpscraper.yml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".tpscraper.yaml"),
			filepath.Join(home, ".tpscraper.yml"),
		)
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ApplyFlags overrides configuration values with command line flags
func (c *Config) ApplyFlags(flags map[string]interface{}) {
	for key, value := range flags {
		switch key {
		case "page-limit":
			if v, ok := value.(int); ok && v > 0 {
				c.Scrape.PageLimit = v
			}
		case "concurrent-downloads":
			if v, ok := value.(int); ok && v > 0 {
				c.Download.ConcurrentDownloads = v
			}
		case "data-directory":
			if v, ok := value.(string); ok && v != "" {
				c.Output.DataDirectory = v
			}
		case "images-directory":
			if v, ok := value.(string); ok && v != "" {
				c.Output.ImagesDirectory = v
			}
		case "input-file":
			if v, ok := value.(string); ok && v != "" {
				c.Output.InputFile = v
			}
		case "log-level":
			if v, ok := value.(string); ok && v != "" {
				c.Logging.Level = v
			}
		case "log-file":
			if v, ok := value.(string); ok && v != "" {
				c.Logging.File = v
			}
		case "user-agent":
			if v, ok := value.(string); ok && v != "" {
				c.HTTP.UserAgent = v
			}
		}
	}
}

// Validate checks that the configuration values are usable
func (c *Config) Validate() error {
	if c.HTTP.ConnectTimeout <= 0 {
		return errors.New("http.connect_timeout must be positive")
	}
	if c.HTTP.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	if c.Scrape.PageLimit <= 0 {
		return errors.New("scrape.page_limit must be positive")
	}
	if c.Download.ConcurrentDownloads <= 0 {
		return errors.New("download.concurrent_downloads must be positive")
	}
	if strings.TrimSpace(c.Output.InputFile) == "" {
		return errors.New("output.input_file must be set")
	}
	if strings.TrimSpace(c.Output.ImagesDirectory) == "" {
		return errors.New("output.images_directory must be set")
	}
	return nil
}

// Load builds a Config from defaults, an optional YAML file, environment
// variables and command line flags, in that order of precedence.
func Load(path string, flags map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(path); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	cfg.ApplyFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

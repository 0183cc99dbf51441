// Package trustpilot fetches and parses Trustpilot review listing pages.
package trustpilot

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"tpscraper/pkg/config"
	"tpscraper/pkg/logger"
)

// ErrorKind classifies client errors
type ErrorKind string

const (
	ErrorKindFetch ErrorKind = "fetch"
	ErrorKindParse ErrorKind = "parse"
)

// Error represents a transport or parse failure
type Error struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("trustpilot %s error for %s: %v", e.Kind, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client performs HTTP GET requests for listing pages and avatar images
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     logger.Logger
}

// NewClient creates a Client with the configured connect and read timeouts
func NewClient(cfg config.HTTPConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		userAgent: cfg.UserAgent,
		logger:    log,
	}
}

// FetchPage retrieves the raw markup for one URL. Any response body is
// treated as usable content regardless of HTTP status; only transport-level
// failures produce an error. No retries.
func (c *Client) FetchPage(url string) (string, error) {
	body, err := c.get(url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// DownloadImage retrieves the raw bytes of an avatar image
func (c *Client) DownloadImage(url string) ([]byte, error) {
	return c.get(url)
}

func (c *Client) get(url string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: ErrorKindFetch, URL: url, Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, &Error{Kind: ErrorKindFetch, URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: ErrorKindFetch, URL: url, Err: err}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"bytes":    len(body),
		"duration": time.Since(start),
	})
	return body, nil
}

// Package downloader resolves avatar source URLs to local image files using
// a fixed-size worker pool.
package downloader

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"tpscraper/pkg/logger"
)

// DefaultWorkers is the download concurrency ceiling.
const DefaultWorkers = 8

// Outcome is the result of resolving one avatar URL
type Outcome struct {
	Filename string
	Err      error
}

// Resolved reports whether the URL was resolved to a local file
func (o Outcome) Resolved() bool {
	return o.Err == nil && o.Filename != ""
}

// DownloadJob represents a single queued avatar fetch
type DownloadJob struct {
	URL      string
	Filename string
}

type downloadResult struct {
	URL     string
	Outcome Outcome
}

// ImageFetcher downloads raw image bytes
type ImageFetcher interface {
	DownloadImage(url string) ([]byte, error)
}

// ImageStore is the storage surface the pool needs: filename derivation,
// disk/cache lookups and atomic saves
type ImageStore interface {
	FilenameFor(name, url string) string
	Exists(filename string) bool
	Save(r io.Reader, filename string) error
	CachedFilename(url string) (string, bool)
	CacheFilename(url, filename string)
}

// Pool fetches avatars with bounded concurrency
type Pool struct {
	numWorkers int
	client     ImageFetcher
	store      ImageStore
	logger     logger.Logger
}

// NewPool creates a download pool with the given worker count
func NewPool(numWorkers int, client ImageFetcher, store ImageStore, log logger.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pool{
		numWorkers: numWorkers,
		client:     client,
		store:      store,
		logger:     log,
	}
}

// ResolveAll resolves every (URL, name) pair in the avatar map to a local
// filename or a failure. Pairs with an empty URL or name are skipped. URLs
// already in the cache or whose target filename exists on disk are resolved
// without any network fetch. The call blocks until every queued fetch has
// settled; one failed fetch never affects its siblings.
func (p *Pool) ResolveAll(avatars map[string]string) map[string]Outcome {
	results := make(map[string]Outcome)

	var queued []DownloadJob
	for url, name := range avatars {
		if url == "" || name == "" {
			continue
		}
		if filename, ok := p.store.CachedFilename(url); ok {
			results[url] = Outcome{Filename: filename}
			continue
		}
		filename := p.store.FilenameFor(name, url)
		if p.store.Exists(filename) {
			p.store.CacheFilename(url, filename)
			results[url] = Outcome{Filename: filename}
			continue
		}
		queued = append(queued, DownloadJob{URL: url, Filename: filename})
	}

	if len(queued) == 0 {
		return results
	}

	p.logger.InfoWithFields("downloading avatars", map[string]interface{}{
		"queued":  len(queued),
		"workers": p.numWorkers,
	})

	jobQueue := make(chan DownloadJob)
	resultQueue := make(chan downloadResult, len(queued))

	var wg sync.WaitGroup
	workers := p.numWorkers
	if workers > len(queued) {
		workers = len(queued)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go p.worker(i, jobQueue, resultQueue, &wg)
	}

	go func() {
		for _, job := range queued {
			jobQueue <- job
		}
		close(jobQueue)
	}()

	go func() {
		wg.Wait()
		close(resultQueue)
	}()

	// Barrier: every queued fetch settles before ResolveAll returns.
	for result := range resultQueue {
		results[result.URL] = result.Outcome
	}
	return results
}

func (p *Pool) worker(id int, jobs <-chan DownloadJob, out chan<- downloadResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range jobs {
		out <- downloadResult{URL: job.URL, Outcome: p.processJob(job, id)}
	}
}

// processJob downloads one avatar and saves it under its derived filename
func (p *Pool) processJob(job DownloadJob, workerID int) Outcome {
	start := time.Now()

	data, err := p.client.DownloadImage(job.URL)
	if err != nil {
		p.logger.ErrorWithFields("avatar download failed", map[string]interface{}{
			"worker_id": workerID,
			"url":       job.URL,
			"error":     err.Error(),
		})
		return Outcome{Err: fmt.Errorf("download failed: %w", err)}
	}

	if err := p.store.Save(bytes.NewReader(data), job.Filename); err != nil {
		p.logger.ErrorWithFields("avatar save failed", map[string]interface{}{
			"worker_id": workerID,
			"url":       job.URL,
			"filename":  job.Filename,
			"error":     err.Error(),
		})
		return Outcome{Err: fmt.Errorf("save failed: %w", err)}
	}

	p.store.CacheFilename(job.URL, job.Filename)

	p.logger.DebugWithFields("avatar downloaded", map[string]interface{}{
		"worker_id": workerID,
		"url":       job.URL,
		"filename":  job.Filename,
		"size":      len(data),
		"duration":  time.Since(start),
	})
	return Outcome{Filename: job.Filename}
}

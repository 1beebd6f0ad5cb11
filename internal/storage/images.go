package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/elcairo-events/internal/event"
	"github.com/pfrederiksen/elcairo-events/internal/logger"
)

const (
	// ImageTimeout bounds a single image download
	ImageTimeout = 3 * time.Second

	imagesDir = "images"
	userAgent = "elcairo-cli/1.0 (github.com/pfrederiksen/elcairo-events)"
)

// ImageDownloader stores event posters under <dataDir>/images
type ImageDownloader struct {
	client *http.Client
	dir    string
}

// NewImageDownloader creates a downloader writing into dataDir/images.
// A timeout <= 0 uses ImageTimeout.
func NewImageDownloader(dataDir string, timeout time.Duration) *ImageDownloader {
	if timeout <= 0 {
		timeout = ImageTimeout
	}
	return &ImageDownloader{
		client: &http.Client{
			Timeout: timeout,
		},
		dir: filepath.Join(dataDir, imagesDir),
	}
}

// Dir returns the image directory
func (d *ImageDownloader) Dir() string {
	return d.dir
}

// Download fetches url into <id>.jpeg and returns the file path.
// Any failure yields "" and leaves no partial file behind.
func (d *ImageDownloader) Download(ctx context.Context, url, id string) string {
	if url == "" || id == "" {
		return ""
	}
	path, err := d.download(ctx, url, id)
	if err != nil {
		logger.Warn("Downloading image failed", logger.Fields{
			"url":   url,
			"id":    id,
			"error": err.Error(),
		})
		return ""
	}
	return path
}

func (d *ImageDownloader) download(ctx context.Context, url, id string) (string, error) {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("creating image directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	path := filepath.Join(d.dir, imageName(id))
	tmp, err := os.CreateTemp(d.dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("moving image: %w", err)
	}
	return path, nil
}

// DownloadAll fetches the image of every event with at most workers
// downloads in flight. The result maps event IDs to file paths and only
// holds successful downloads.
func (d *ImageDownloader) DownloadAll(ctx context.Context, events []*event.EnrichedEvent, workers int) map[string]string {
	if workers < 1 {
		workers = 1
	}
	paths := make(map[string]string)
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for _, evt := range events {
		if evt.ImageURL == "" {
			continue
		}
		g.Go(func() error {
			if path := d.Download(ctx, evt.ImageURL, evt.ID); path != "" {
				mu.Lock()
				paths[evt.ID] = path
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return paths
}

// imageName keeps IDs containing path separators inside the image directory
func imageName(id string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	return r.Replace(id) + ".jpeg"
}

// Asset download [AssetService] implementation.
//
// Downloads remote audio and cover files into the local media directory.
// Failures here are treated as degraded, not fatal, by the generation engine:
// the remote URL remains a usable reference.
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/soundry/soundry/internal/shared"
)

// AssetDownloader implements [AssetService] against the local filesystem.
type AssetDownloader struct {
	mediaDir   string
	httpClient *http.Client
}

// NewAssetDownloader creates a downloader rooted at mediaDir.
func NewAssetDownloader(mediaDir string, client *http.Client) *AssetDownloader {
	if mediaDir == "" {
		mediaDir = "media"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &AssetDownloader{mediaDir: mediaDir, httpClient: client}
}

// FetchAndPersist downloads remoteURL into the media directory.
//
// The file is named after the hinted title plus the remote extension. When
// the response carries an X-Audio-Duration header the parsed value is
// returned so callers can avoid probing the file.
func (d *AssetDownloader) FetchAndPersist(ctx context.Context, remoteURL, hintedTitle string) (*AssetResult, error) {
	if remoteURL == "" {
		return nil, fmt.Errorf("%w: remote URL is empty", shared.ErrInvalidArgument)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(d.mediaDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	name := d.localName(remoteURL, hintedTitle)
	localPath := filepath.Join(d.mediaDir, name)

	out, err := os.Create(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create local file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(localPath)
		return nil, fmt.Errorf("failed to write local file: %w", err)
	}

	result := &AssetResult{LocalRef: localPath}
	if header := resp.Header.Get("X-Audio-Duration"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			result.Duration = seconds
		}
	}
	return result, nil
}

// localName builds a collision-resistant filename from the title hint and the
// remote URL's extension.
func (d *AssetDownloader) localName(remoteURL, hintedTitle string) string {
	ext := path.Ext(remoteURL)
	if idx := strings.IndexAny(ext, "?#"); idx >= 0 {
		ext = ext[:idx]
	}
	if ext == "" || len(ext) > 8 {
		ext = ".bin"
	}

	slug := shared.Slugify(hintedTitle)
	if slug == "" {
		slug = "asset"
	}
	return slug + "_" + shared.GenerateID()[:8] + ext
}

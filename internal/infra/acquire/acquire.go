// Package acquire resolves video references to local files. A reference
// is either a local path, an http(s) URL downloaded into the work
// directory, or a minio://bucket-relative object key fetched from the
// configured video storage.
package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/domain/port"
)

const objectScheme = "minio://"

type Acquirer struct {
	storage port.VideoStorage // nil when running without object storage
	client  *http.Client
	logger  *zap.Logger
}

func New(storage port.VideoStorage, logger *zap.Logger) *Acquirer {
	return &Acquirer{
		storage: storage,
		client:  &http.Client{Timeout: 10 * time.Minute},
		logger:  logger,
	}
}

// Acquire resolves ref into a readable local file under workDir and
// returns its path. All failures wrap port.ErrSourceUnavailable so the
// caller can distinguish "could not get the video" from later pipeline
// errors.
func (a *Acquirer) Acquire(ctx context.Context, ref string, workDir string) (string, error) {
	switch {
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return a.download(ctx, ref, workDir)
	case strings.HasPrefix(ref, objectScheme):
		return a.fetchObject(ctx, strings.TrimPrefix(ref, objectScheme), workDir)
	default:
		if _, err := os.Stat(ref); err != nil {
			return "", fmt.Errorf("%w: %s", port.ErrSourceUnavailable, ref)
		}
		return ref, nil
	}
}

func (a *Acquirer) download(ctx context.Context, rawURL string, workDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", port.ErrSourceUnavailable, rawURL, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: download %s: %v", port.ErrSourceUnavailable, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: download %s: status %d", port.ErrSourceUnavailable, rawURL, resp.StatusCode)
	}

	destPath := filepath.Join(workDir, remoteFilename(rawURL))
	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", destPath, err)
	}

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		// A truncated download must not leave a partial file behind.
		out.Close()
		os.Remove(destPath)
		return "", fmt.Errorf("%w: download %s: %v", port.ErrSourceUnavailable, rawURL, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("write %s: %w", destPath, err)
	}

	a.logger.Info("video downloaded",
		zap.String("url", rawURL),
		zap.String("path", destPath),
		zap.Int64("bytes", n),
	)

	return destPath, nil
}

func (a *Acquirer) fetchObject(ctx context.Context, objectKey string, workDir string) (string, error) {
	if a.storage == nil {
		return "", fmt.Errorf("%w: no object storage configured for %s", port.ErrSourceUnavailable, objectKey)
	}

	destPath := filepath.Join(workDir, path.Base(objectKey))
	if err := a.storage.DownloadVideo(ctx, objectKey, destPath); err != nil {
		return "", fmt.Errorf("%w: fetch %s: %v", port.ErrSourceUnavailable, objectKey, err)
	}
	return destPath, nil
}

// remoteFilename derives a sane local filename from a URL, falling back
// to a fixed name when the path carries none.
func remoteFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || path.Base(u.Path) == "." || path.Base(u.Path) == "/" {
		return "input.mp4"
	}
	return path.Base(u.Path)
}

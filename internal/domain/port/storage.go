package port

import (
	"context"
	"io"
)

// VideoStorage is the object store holding uploaded source videos and
// the archives of extracted frames.
type VideoStorage interface {
	DownloadVideo(ctx context.Context, objectKey string, destPath string) error
	UploadArchive(ctx context.Context, objectKey string, reader io.Reader, size int64) error
}

package port

import "context"

// Archiver packages a directory of extracted frames into a single
// archive file for upload.
type Archiver interface {
	CreateArchive(ctx context.Context, framesDir string, outputPath string) error
}

package port

import "context"

// VideoProber reports container metadata without decoding frames.
type VideoProber interface {
	Duration(ctx context.Context, videoPath string) (float64, error)
}

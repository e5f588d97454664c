package port

import (
	"errors"
	"image"
)

// ErrEndOfStream is returned by ReadFrame when the source has no more
// frames. It is the normal termination signal, not a failure.
var ErrEndOfStream = errors.New("end of stream")

// ErrSourceUnavailable wraps failures to locate or open a video reference
// (missing file, failed download, undecodable container). Opening must fail
// explicitly; an unopenable source never presents as a zero-frame source.
var ErrSourceUnavailable = errors.New("video source unavailable")

// FrameSource is an ordered, finite, forward-only sequence of decoded
// frames. ReadFrame returns the next frame or ErrEndOfStream once the
// source is exhausted. The returned image is owned by the caller.
type FrameSource interface {
	ReadFrame() (image.Image, error)
}

// VideoSource is an opened video handle. The opener's caller retains
// ownership and must Close it after sampling completes.
type VideoSource interface {
	FrameSource

	Width() int
	Height() int
	// FrameCount is the container's reported frame total, 0 if unknown.
	FrameCount() int
	Close() error
}

// SourceOpener resolves a local video file into a readable VideoSource,
// positioned at the first frame.
type SourceOpener interface {
	Open(path string) (VideoSource, error)
}

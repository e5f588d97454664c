package port

import (
	"context"
	"image"
)

// OutputFrame is a resized frame accepted by the sampler, carrying the
// identifier it must be persisted under. Frames are handed off one at a
// time and not retained by the sampler.
type OutputFrame struct {
	Image image.Image
	// SavedIndex is the 0-based position among accepted frames.
	SavedIndex int
	// ID is the zero-padded identifier derived from SavedIndex,
	// e.g. "frame_00042". File extension is the sink's concern.
	ID string
}

// FrameSink persists accepted frames in the order they are emitted.
type FrameSink interface {
	WriteFrame(ctx context.Context, frame OutputFrame) error
}

// Package sampler implements the frame sampling contract: read a video
// source to exhaustion, keep every Nth frame, resize it to a fixed target
// size and emit it under a gap-free zero-padded identifier.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/domain/port"
)

// ErrInvalidConfig is returned for a non-positive sample rate or target
// dimension. Validation happens before the first read.
var ErrInvalidConfig = errors.New("invalid sampling config")

// Config holds the sampling parameters for one run.
type Config struct {
	// SampleRate is the stride: a frame at position i (0-based, counted
	// over all frames read) is accepted iff i % SampleRate == 0.
	// 1 accepts every frame.
	SampleRate int
	// TargetWidth and TargetHeight are the exact output dimensions.
	// Frames are stretched, not cropped or letterboxed.
	TargetWidth  int
	TargetHeight int
}

func (c Config) Validate() error {
	if c.SampleRate < 1 {
		return fmt.Errorf("%w: sample rate %d, must be >= 1", ErrInvalidConfig, c.SampleRate)
	}
	if c.TargetWidth < 1 || c.TargetHeight < 1 {
		return fmt.Errorf("%w: target size %dx%d, both dimensions must be >= 1", ErrInvalidConfig, c.TargetWidth, c.TargetHeight)
	}
	return nil
}

// FrameID formats the output identifier for an accepted frame.
// Identifiers start at frame_00000 and never skip.
func FrameID(savedIndex int) string {
	return fmt.Sprintf("frame_%05d", savedIndex)
}

type Sampler struct {
	cfg    Config
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sampler{cfg: cfg, logger: logger}, nil
}

// Run drives src to exhaustion and hands each accepted, resized frame to
// sink in source order. It returns the number of frames emitted. A source
// that yields no frames at all returns (0, nil); end of stream is the
// only normal termination. The caller owns src and must close it.
func (s *Sampler) Run(ctx context.Context, src port.FrameSource, sink port.FrameSink) (int, error) {
	sampleIndex := 0
	savedIndex := 0

	for {
		select {
		case <-ctx.Done():
			return savedIndex, ctx.Err()
		default:
		}

		frame, err := src.ReadFrame()
		if errors.Is(err, port.ErrEndOfStream) {
			break
		}
		if err != nil {
			return savedIndex, fmt.Errorf("read frame %d: %w", sampleIndex, err)
		}

		if sampleIndex%s.cfg.SampleRate == 0 {
			out := port.OutputFrame{
				Image:      s.resize(frame),
				SavedIndex: savedIndex,
				ID:         FrameID(savedIndex),
			}
			if err := sink.WriteFrame(ctx, out); err != nil {
				return savedIndex, fmt.Errorf("write %s: %w", out.ID, err)
			}
			savedIndex++
		}
		sampleIndex++
	}

	s.logger.Debug("sampling finished",
		zap.Int("frames_read", sampleIndex),
		zap.Int("frames_emitted", savedIndex),
		zap.Int("sample_rate", s.cfg.SampleRate),
	)

	return savedIndex, nil
}

func (s *Sampler) resize(frame image.Image) image.Image {
	b := frame.Bounds()
	if b.Dx() == s.cfg.TargetWidth && b.Dy() == s.cfg.TargetHeight {
		return frame
	}
	return imaging.Resize(frame, s.cfg.TargetWidth, s.cfg.TargetHeight, imaging.Lanczos)
}

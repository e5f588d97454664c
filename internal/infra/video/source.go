// Package video opens local video files as sequential frame sources,
// decoding through ffmpeg via Vidio.
package video

import (
	"fmt"
	"image"
	"os"

	vidio "github.com/AlexEidt/Vidio"

	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/domain/port"
)

type Opener struct{}

func NewOpener() *Opener {
	return &Opener{}
}

// Open fails up front when the file is missing or the container cannot be
// probed, so an unopenable video never looks like a zero-frame one.
func (o *Opener) Open(path string) (port.VideoSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", port.ErrSourceUnavailable, path)
	}

	v, err := vidio.NewVideo(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", port.ErrSourceUnavailable, path, err)
	}

	return &Source{video: v}, nil
}

// Source reads frames one at a time from a decoded video stream.
type Source struct {
	video *vidio.Video
}

func (s *Source) ReadFrame() (image.Image, error) {
	if !s.video.Read() {
		return nil, port.ErrEndOfStream
	}

	w, h := s.video.Width(), s.video.Height()
	// The decoder reuses its framebuffer between reads; copy so the
	// frame stays valid after the next ReadFrame.
	pix := make([]uint8, len(s.video.FrameBuffer()))
	copy(pix, s.video.FrameBuffer())

	return &image.RGBA{
		Pix:    pix,
		Stride: 4 * w,
		Rect:   image.Rect(0, 0, w, h),
	}, nil
}

func (s *Source) Width() int  { return s.video.Width() }
func (s *Source) Height() int { return s.video.Height() }

func (s *Source) FrameCount() int { return s.video.Frames() }

func (s *Source) Close() error {
	s.video.Close()
	return nil
}

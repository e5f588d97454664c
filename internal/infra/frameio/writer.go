// Package frameio persists sampled frames as numbered image files.
package frameio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/domain/port"
)

// Writer writes each frame into a directory as <id>.<format>, e.g.
// frames/frame_00000.png. The directory and its parents are created on
// construction.
type Writer struct {
	dir    string
	format string
}

func NewWriter(dir string, format string) (*Writer, error) {
	switch format {
	case "png", "jpg", "jpeg", "bmp", "tif", "tiff":
	default:
		return nil, fmt.Errorf("unsupported frame format %q", format)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create frames dir %s: %w", dir, err)
	}

	return &Writer{dir: dir, format: format}, nil
}

func (w *Writer) Dir() string { return w.dir }

func (w *Writer) WriteFrame(ctx context.Context, frame port.OutputFrame) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	path := filepath.Join(w.dir, frame.ID+"."+w.format)
	if err := imaging.Save(frame.Image, path); err != nil {
		return fmt.Errorf("save frame %s: %w", frame.ID, err)
	}
	return nil
}

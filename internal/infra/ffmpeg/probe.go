// Package ffmpeg shells out to the ffprobe binary for container metadata
// and packages extracted frames into archives.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type Prober struct {
	logger *zap.Logger
}

func NewProber(logger *zap.Logger) *Prober {
	return &Prober{logger: logger}
}

// Duration returns the container duration in seconds. A probe failure is
// reported but non-fatal for the pipeline; callers log and carry on with
// a zero duration.
func (p *Prober) Duration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", videoPath, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration: %w", err)
	}

	p.logger.Debug("video probed",
		zap.String("path", videoPath),
		zap.Float64("duration_secs", duration),
	)

	return duration, nil
}

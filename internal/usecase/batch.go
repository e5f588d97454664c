package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/domain/port"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/sampler"
)

// BatchConfig drives a local multi-video extraction run.
type BatchConfig struct {
	BaseDir      string
	SampleRate   int
	TargetWidth  int
	TargetHeight int
	FrameFormat  string
	// KeepDownloads leaves acquired remote files on disk instead of
	// deleting them once their frames are extracted.
	KeepDownloads bool
}

// ItemResult is the outcome for one source in a batch. Err is nil on
// success.
type ItemResult struct {
	Index      int
	Source     string
	FramesDir  string
	FrameCount int
	Err        error
}

// BatchReport aggregates per-source outcomes. A failed source never
// aborts the batch; it is recorded here and the batch moves on.
type BatchReport struct {
	Results []ItemResult
}

func (r *BatchReport) Failures() []ItemResult {
	var failed []ItemResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

func (r *BatchReport) TotalFrames() int {
	total := 0
	for _, res := range r.Results {
		total += res.FrameCount
	}
	return total
}

func (r *BatchReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d videos processed, %d frames extracted",
		len(r.Results)-len(r.Failures()), len(r.Results), r.TotalFrames())
	for _, f := range r.Failures() {
		fmt.Fprintf(&b, "\n  video %02d (%s): %v", f.Index, f.Source, f.Err)
	}
	return b.String()
}

// BatchExtractor runs the extraction pipeline over a list of video
// references without the queue, writing into
// <base>/video_NN/frames/frame_NNNNN.<format>.
type BatchExtractor struct {
	acquirer port.VideoAcquirer
	opener   port.SourceOpener
	sinks    SinkFactory
	logger   *zap.Logger
	cfg      BatchConfig
}

func NewBatchExtractor(
	acquirer port.VideoAcquirer,
	opener port.SourceOpener,
	sinks SinkFactory,
	logger *zap.Logger,
	cfg BatchConfig,
) (*BatchExtractor, error) {
	// Config problems fail the whole batch up front, before any source
	// is touched.
	samplerCfg := sampler.Config{
		SampleRate:   cfg.SampleRate,
		TargetWidth:  cfg.TargetWidth,
		TargetHeight: cfg.TargetHeight,
	}
	if err := samplerCfg.Validate(); err != nil {
		return nil, err
	}

	return &BatchExtractor{
		acquirer: acquirer,
		opener:   opener,
		sinks:    sinks,
		logger:   logger,
		cfg:      cfg,
	}, nil
}

func (b *BatchExtractor) Run(ctx context.Context, sources []string) (*BatchReport, error) {
	report := &BatchReport{Results: make([]ItemResult, 0, len(sources))}

	for i, src := range sources {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		result := b.processOne(ctx, i, src)
		if result.Err != nil {
			b.logger.Error("video failed, continuing with next",
				zap.Int("index", i),
				zap.String("source", src),
				zap.Error(result.Err),
			)
		} else {
			b.logger.Info("video processed",
				zap.Int("index", i),
				zap.String("source", src),
				zap.Int("frame_count", result.FrameCount),
			)
		}
		report.Results = append(report.Results, result)
	}

	return report, nil
}

func (b *BatchExtractor) processOne(ctx context.Context, index int, src string) ItemResult {
	result := ItemResult{Index: index, Source: src}

	videoDir := filepath.Join(b.cfg.BaseDir, fmt.Sprintf("video_%02d", index))
	if err := os.MkdirAll(videoDir, 0755); err != nil {
		result.Err = fmt.Errorf("create video dir: %w", err)
		return result
	}

	videoPath, err := b.acquirer.Acquire(ctx, src, videoDir)
	if err != nil {
		result.Err = err
		return result
	}
	if videoPath != src && !b.cfg.KeepDownloads {
		defer os.Remove(videoPath)
	}

	source, err := b.opener.Open(videoPath)
	if err != nil {
		result.Err = err
		return result
	}
	defer source.Close()

	framesDir := filepath.Join(videoDir, "frames")
	sink, err := b.sinks(framesDir, b.cfg.FrameFormat)
	if err != nil {
		result.Err = fmt.Errorf("create frame sink: %w", err)
		return result
	}

	smp, err := sampler.New(sampler.Config{
		SampleRate:   b.cfg.SampleRate,
		TargetWidth:  b.cfg.TargetWidth,
		TargetHeight: b.cfg.TargetHeight,
	}, b.logger)
	if err != nil {
		result.Err = err
		return result
	}

	count, err := smp.Run(ctx, source, sink)
	if err != nil {
		result.Err = err
		return result
	}

	result.FramesDir = framesDir
	result.FrameCount = count
	return result
}

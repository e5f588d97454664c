package usecase

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/domain/port"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/sampler"
)

// fakeAcquirer maps refs to local paths; unknown refs are unavailable.
type fakeAcquirer struct {
	paths map[string]string
}

func (f *fakeAcquirer) Acquire(_ context.Context, ref string, _ string) (string, error) {
	if p, ok := f.paths[ref]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %s", port.ErrSourceUnavailable, ref)
}

// fakeVideoSource yields a fixed number of uniform frames.
type fakeVideoSource struct {
	remaining int
	w, h      int
}

func (f *fakeVideoSource) ReadFrame() (image.Image, error) {
	if f.remaining == 0 {
		return nil, port.ErrEndOfStream
	}
	f.remaining--
	return image.NewRGBA(image.Rect(0, 0, f.w, f.h)), nil
}

func (f *fakeVideoSource) Width() int      { return f.w }
func (f *fakeVideoSource) Height() int     { return f.h }
func (f *fakeVideoSource) FrameCount() int { return f.remaining }
func (f *fakeVideoSource) Close() error    { return nil }

// fakeOpener serves per-path frame counts; missing paths fail to open.
type fakeOpener struct {
	frameCounts map[string]int
}

func (f *fakeOpener) Open(path string) (port.VideoSource, error) {
	n, ok := f.frameCounts[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", port.ErrSourceUnavailable, path)
	}
	return &fakeVideoSource{remaining: n, w: 640, h: 480}, nil
}

// memorySinkFactory records emitted frames per directory.
type memorySinkFactory struct {
	byDir map[string][]port.OutputFrame
}

func newMemorySinkFactory() *memorySinkFactory {
	return &memorySinkFactory{byDir: make(map[string][]port.OutputFrame)}
}

func (m *memorySinkFactory) factory(dir string, _ string) (port.FrameSink, error) {
	return &memorySink{dir: dir, factory: m}, nil
}

type memorySink struct {
	dir     string
	factory *memorySinkFactory
}

func (s *memorySink) WriteFrame(_ context.Context, frame port.OutputFrame) error {
	s.factory.byDir[s.dir] = append(s.factory.byDir[s.dir], frame)
	return nil
}

func defaultBatchConfig(baseDir string) BatchConfig {
	return BatchConfig{
		BaseDir:      baseDir,
		SampleRate:   3,
		TargetWidth:  224,
		TargetHeight: 224,
		FrameFormat:  "png",
	}
}

func TestBatchProcessesAllSources(t *testing.T) {
	baseDir := t.TempDir()
	sinks := newMemorySinkFactory()

	b, err := NewBatchExtractor(
		&fakeAcquirer{paths: map[string]string{"a.mp4": "/videos/a.mp4", "b.mp4": "/videos/b.mp4"}},
		&fakeOpener{frameCounts: map[string]int{"/videos/a.mp4": 10, "/videos/b.mp4": 5}},
		sinks.factory,
		zap.NewNop(),
		defaultBatchConfig(baseDir),
	)
	require.NoError(t, err)

	report, err := b.Run(context.Background(), []string{"a.mp4", "b.mp4"})

	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Empty(t, report.Failures())

	// 10 frames at stride 3 -> 4; 5 frames -> 2.
	assert.Equal(t, 4, report.Results[0].FrameCount)
	assert.Equal(t, 2, report.Results[1].FrameCount)
	assert.Equal(t, 6, report.TotalFrames())

	assert.Equal(t, filepath.Join(baseDir, "video_00", "frames"), report.Results[0].FramesDir)
	assert.Equal(t, filepath.Join(baseDir, "video_01", "frames"), report.Results[1].FramesDir)

	frames := sinks.byDir[report.Results[0].FramesDir]
	require.Len(t, frames, 4)
	assert.Equal(t, "frame_00000", frames[0].ID)
	assert.Equal(t, "frame_00003", frames[3].ID)
}

func TestBatchContinuesPastFailedSource(t *testing.T) {
	sinks := newMemorySinkFactory()

	b, err := NewBatchExtractor(
		&fakeAcquirer{paths: map[string]string{"good.mp4": "/videos/good.mp4"}},
		&fakeOpener{frameCounts: map[string]int{"/videos/good.mp4": 6}},
		sinks.factory,
		zap.NewNop(),
		defaultBatchConfig(t.TempDir()),
	)
	require.NoError(t, err)

	report, err := b.Run(context.Background(), []string{"missing.mp4", "good.mp4"})

	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, 0, failures[0].Index)
	assert.ErrorIs(t, failures[0].Err, port.ErrSourceUnavailable)

	assert.NoError(t, report.Results[1].Err)
	assert.Equal(t, 2, report.Results[1].FrameCount)
}

func TestBatchUnopenableSourceIsReportedNotEmpty(t *testing.T) {
	// A video that downloads but cannot be decoded must surface as an
	// error, not as a zero-frame success.
	b, err := NewBatchExtractor(
		&fakeAcquirer{paths: map[string]string{"corrupt.mp4": "/videos/corrupt.mp4"}},
		&fakeOpener{frameCounts: map[string]int{}},
		newMemorySinkFactory().factory,
		zap.NewNop(),
		defaultBatchConfig(t.TempDir()),
	)
	require.NoError(t, err)

	report, err := b.Run(context.Background(), []string{"corrupt.mp4"})

	require.NoError(t, err)
	require.Len(t, report.Failures(), 1)
	assert.ErrorIs(t, report.Results[0].Err, port.ErrSourceUnavailable)
}

func TestBatchRejectsInvalidConfigUpFront(t *testing.T) {
	cfg := defaultBatchConfig(t.TempDir())
	cfg.SampleRate = 0

	_, err := NewBatchExtractor(
		&fakeAcquirer{},
		&fakeOpener{},
		newMemorySinkFactory().factory,
		zap.NewNop(),
		cfg,
	)

	assert.ErrorIs(t, err, sampler.ErrInvalidConfig)
}

func TestBatchReportSummary(t *testing.T) {
	report := &BatchReport{Results: []ItemResult{
		{Index: 0, Source: "a.mp4", FrameCount: 4},
		{Index: 1, Source: "b.mp4", Err: fmt.Errorf("%w: b.mp4", port.ErrSourceUnavailable)},
	}}

	summary := report.Summary()
	assert.Contains(t, summary, "1/2 videos processed")
	assert.Contains(t, summary, "4 frames extracted")
	assert.Contains(t, summary, "b.mp4")
}

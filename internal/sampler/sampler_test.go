package sampler

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/domain/port"
)

// fakeSource serves a fixed slice of frames and counts reads.
type fakeSource struct {
	frames []image.Image
	pos    int
	reads  int
	err    error // returned instead of the frame at errAt
	errAt  int
}

func (f *fakeSource) ReadFrame() (image.Image, error) {
	f.reads++
	if f.err != nil && f.pos == f.errAt {
		return nil, f.err
	}
	if f.pos >= len(f.frames) {
		return nil, port.ErrEndOfStream
	}
	img := f.frames[f.pos]
	f.pos++
	return img, nil
}

// fakeSink records emitted frames in order.
type fakeSink struct {
	frames []port.OutputFrame
	err    error
}

func (f *fakeSink) WriteFrame(_ context.Context, frame port.OutputFrame) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, frame)
	return nil
}

// solidFrame builds a w x h frame filled with a color unique to n, so
// order survives resizing.
func solidFrame(n, w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	c := color.RGBA{R: uint8(n), G: uint8(n >> 8), B: 7, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func makeFrames(n, w, h int) []image.Image {
	frames := make([]image.Image, n)
	for i := range frames {
		frames[i] = solidFrame(i, w, h)
	}
	return frames
}

func newSampler(t *testing.T, cfg Config) *Sampler {
	t.Helper()
	s, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestEmittedCountMatchesStride(t *testing.T) {
	cases := []struct {
		n, rate, want int
	}{
		{0, 1, 0},
		{1, 1, 1},
		{10, 1, 10},
		{10, 3, 4},  // ceil(10/3)
		{9, 3, 3},   // exact multiple
		{5, 30, 1},  // stride larger than source
		{100, 7, 15},
		{1, 100, 1},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("n=%d_rate=%d", tc.n, tc.rate), func(t *testing.T) {
			s := newSampler(t, Config{SampleRate: tc.rate, TargetWidth: 32, TargetHeight: 32})
			sink := &fakeSink{}

			count, err := s.Run(context.Background(), &fakeSource{frames: makeFrames(tc.n, 64, 48)}, sink)

			require.NoError(t, err)
			assert.Equal(t, tc.want, count)
			assert.Len(t, sink.frames, tc.want)
		})
	}
}

func TestStrideOneKeepsEveryFrameInOrder(t *testing.T) {
	const n = 12
	s := newSampler(t, Config{SampleRate: 1, TargetWidth: 16, TargetHeight: 16})
	sink := &fakeSink{}

	count, err := s.Run(context.Background(), &fakeSource{frames: makeFrames(n, 16, 16)}, sink)

	require.NoError(t, err)
	require.Equal(t, n, count)
	for i, frame := range sink.frames {
		assert.Equal(t, i, frame.SavedIndex)
		r, _, _, _ := frame.Image.At(0, 0).RGBA()
		assert.Equal(t, uint32(i), r>>8, "frame %d out of order", i)
	}
}

func TestIdentifiersAreGapFree(t *testing.T) {
	// 10 frames at stride 3 accepts positions 0, 3, 6, 9.
	s := newSampler(t, Config{SampleRate: 3, TargetWidth: 8, TargetHeight: 8})
	sink := &fakeSink{}

	count, err := s.Run(context.Background(), &fakeSource{frames: makeFrames(10, 8, 8)}, sink)

	require.NoError(t, err)
	require.Equal(t, 4, count)

	wantIDs := []string{"frame_00000", "frame_00001", "frame_00002", "frame_00003"}
	for i, frame := range sink.frames {
		assert.Equal(t, i, frame.SavedIndex)
		assert.Equal(t, wantIDs[i], frame.ID)
	}

	// Accepted frames are the ones at the stride positions.
	for i, wantPos := range []int{0, 3, 6, 9} {
		r, _, _, _ := sink.frames[i].Image.At(0, 0).RGBA()
		assert.Equal(t, uint32(wantPos), r>>8)
	}
}

func TestStrideLargerThanSource(t *testing.T) {
	s := newSampler(t, Config{SampleRate: 30, TargetWidth: 8, TargetHeight: 8})
	sink := &fakeSink{}

	count, err := s.Run(context.Background(), &fakeSource{frames: makeFrames(5, 8, 8)}, sink)

	require.NoError(t, err)
	require.Equal(t, 1, count)
	assert.Equal(t, "frame_00000", sink.frames[0].ID)
}

func TestEmptySourceYieldsZeroWithoutError(t *testing.T) {
	s := newSampler(t, Config{SampleRate: 1, TargetWidth: 8, TargetHeight: 8})
	sink := &fakeSink{}

	count, err := s.Run(context.Background(), &fakeSource{}, sink)

	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, sink.frames)
}

func TestOutputDimensions(t *testing.T) {
	cases := []struct {
		name         string
		inW, inH     int
	}{
		{"downscale_1080p", 1920, 1080},
		{"upscale_small", 64, 48},
		{"already_matching", 224, 224},
		{"aspect_ignored", 100, 400},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSampler(t, Config{SampleRate: 1, TargetWidth: 224, TargetHeight: 224})
			sink := &fakeSink{}

			_, err := s.Run(context.Background(), &fakeSource{frames: makeFrames(1, tc.inW, tc.inH)}, sink)

			require.NoError(t, err)
			require.Len(t, sink.frames, 1)
			b := sink.frames[0].Image.Bounds()
			assert.Equal(t, 224, b.Dx())
			assert.Equal(t, 224, b.Dy())
		})
	}
}

func TestInvalidConfigFailsBeforeAnyRead(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero_rate", Config{SampleRate: 0, TargetWidth: 8, TargetHeight: 8}},
		{"negative_rate", Config{SampleRate: -3, TargetWidth: 8, TargetHeight: 8}},
		{"zero_width", Config{SampleRate: 1, TargetWidth: 0, TargetHeight: 8}},
		{"negative_height", Config{SampleRate: 1, TargetWidth: 8, TargetHeight: -1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg, zap.NewNop())
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestReadErrorPropagates(t *testing.T) {
	readErr := errors.New("decode failed")
	src := &fakeSource{frames: makeFrames(10, 8, 8), err: readErr, errAt: 4}

	s := newSampler(t, Config{SampleRate: 1, TargetWidth: 8, TargetHeight: 8})
	sink := &fakeSink{}

	count, err := s.Run(context.Background(), src, sink)

	require.ErrorIs(t, err, readErr)
	assert.Equal(t, 4, count, "frames before the failure are still emitted")
}

func TestSinkErrorStopsRun(t *testing.T) {
	sinkErr := errors.New("disk full")
	s := newSampler(t, Config{SampleRate: 1, TargetWidth: 8, TargetHeight: 8})

	count, err := s.Run(context.Background(), &fakeSource{frames: makeFrames(3, 8, 8)}, &fakeSink{err: sinkErr})

	require.ErrorIs(t, err, sinkErr)
	assert.Zero(t, count)
}

func TestCancelledContextStopsSampling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{frames: makeFrames(5, 8, 8)}
	s := newSampler(t, Config{SampleRate: 1, TargetWidth: 8, TargetHeight: 8})

	_, err := s.Run(ctx, src, &fakeSink{})

	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, src.reads)
}

func TestFrameID(t *testing.T) {
	assert.Equal(t, "frame_00000", FrameID(0))
	assert.Equal(t, "frame_00042", FrameID(42))
	assert.Equal(t, "frame_12345", FrameID(12345))
}

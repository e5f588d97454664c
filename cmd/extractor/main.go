// Command extractor runs the frame-extraction pipeline over local files
// or URLs without the queue, for building datasets by hand:
//
//	extractor -out suas_dataset -stride 30 -width 224 -height 224 flight01.mov https://example.com/flight02.mp4
//
// Each source gets its own video_NN/frames directory under the output
// root. Failures are reported per video at the end; one broken video
// never aborts the batch.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/domain/port"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/infra/acquire"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/infra/frameio"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/infra/video"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/usecase"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/pkg/logger"
)

func main() {
	var (
		outDir   = flag.String("out", "dataset", "output directory root")
		stride   = flag.Int("stride", 30, "keep every Nth frame (>= 1)")
		width    = flag.Int("width", 224, "output frame width")
		height   = flag.Int("height", 224, "output frame height")
		format   = flag.String("format", "png", "output image format (png, jpg)")
		keep     = flag.Bool("keep-downloads", false, "keep downloaded videos after extraction")
		logLevel = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	sources := flag.Args()
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "usage: extractor [flags] <video-path-or-url> ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	log, err := logger.New(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sinks := func(dir string, format string) (port.FrameSink, error) {
		return frameio.NewWriter(dir, format)
	}

	batch, err := usecase.NewBatchExtractor(
		acquire.New(nil, log),
		video.NewOpener(),
		sinks,
		log,
		usecase.BatchConfig{
			BaseDir:       *outDir,
			SampleRate:    *stride,
			TargetWidth:   *width,
			TargetHeight:  *height,
			FrameFormat:   *format,
			KeepDownloads: *keep,
		},
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	report, err := batch.Run(ctx, sources)
	if err != nil {
		log.Error("batch aborted", zap.Error(err))
	}

	fmt.Println(report.Summary())

	if len(report.Failures()) == len(report.Results) && len(report.Results) > 0 {
		os.Exit(1)
	}
}

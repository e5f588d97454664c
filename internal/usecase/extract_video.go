package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/domain/entity"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/domain/port"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/infra/metrics"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/sampler"
)

// SinkFactory builds the frame sink for one extraction run.
type SinkFactory func(framesDir string, format string) (port.FrameSink, error)

type ExtractVideoUseCase struct {
	repo      port.JobRepository
	storage   port.VideoStorage
	opener    port.SourceOpener
	prober    port.VideoProber
	archiver  port.Archiver
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	sinks     SinkFactory
	logger    *zap.Logger
	cfg       ExtractVideoConfig
}

type ExtractVideoConfig struct {
	TempDir    string
	MaxRetries int
	// Defaults applied when the request message leaves them unset.
	SampleRate   int
	TargetWidth  int
	TargetHeight int
	FrameFormat  string
}

func NewExtractVideoUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	opener port.SourceOpener,
	prober port.VideoProber,
	archiver port.Archiver,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	sinks SinkFactory,
	logger *zap.Logger,
	cfg ExtractVideoConfig,
) *ExtractVideoUseCase {
	return &ExtractVideoUseCase{
		repo:      repo,
		storage:   storage,
		opener:    opener,
		prober:    prober,
		archiver:  archiver,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		sinks:     sinks,
		logger:    logger,
		cfg:       cfg,
	}
}

func (uc *ExtractVideoUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ExtractVideoUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.ExtractionRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewExtractionJob(
			msg.UserID, msg.VideoKey, msg.FileSize,
			orDefault(msg.SampleRate, uc.cfg.SampleRate),
			orDefault(msg.TargetWidth, uc.cfg.TargetWidth),
			orDefault(msg.TargetHeight, uc.cfg.TargetHeight),
			uc.cfg.MaxRetries,
		)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.runPipeline(ctx, job, msg, rawMsg, log); err != nil {
		return err
	}

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

func (uc *ExtractVideoUseCase) runPipeline(
	ctx context.Context,
	job *entity.ExtractionJob,
	msg entity.ExtractionRequestMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	// Invalid sampling parameters never succeed on retry.
	smp, err := sampler.New(sampler.Config{
		SampleRate:   job.SampleRate,
		TargetWidth:  job.TargetWidth,
		TargetHeight: job.TargetHeight,
	}, log)
	if err != nil {
		log.Error("invalid sampling config", zap.Error(err))
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "invalid_config: "+err.Error())
	}

	workDir := filepath.Join(uc.cfg.TempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download the source video from object storage.
	dlStart := time.Now()
	ctx2, spanDl := tracer.Start(ctx, "download_video")
	videoPath := filepath.Join(workDir, "input.mp4")
	if err := uc.storage.DownloadVideo(ctx2, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_video: "+err.Error(), log)
	}
	spanDl.End()
	metrics.StageDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	duration, err := uc.prober.Duration(ctx, videoPath)
	if err != nil {
		log.Warn("could not probe video duration", zap.Error(err))
	}

	// Open before sampling so a broken video fails here, not as an
	// empty frame sequence.
	source, err := uc.opener.Open(videoPath)
	if err != nil {
		log.Error("failed to open video", zap.Error(err))
		if errors.Is(err, port.ErrSourceUnavailable) {
			return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "open_video: "+err.Error(), log)
		}
		return fmt.Errorf("open video: %w", err)
	}
	defer source.Close()

	// Sample frames.
	exStart := time.Now()
	ctx3, spanEx := tracer.Start(ctx, "sample_frames")
	framesDir := filepath.Join(workDir, "frames")
	sink, err := uc.sinks(framesDir, uc.cfg.FrameFormat)
	if err != nil {
		spanEx.End()
		return fmt.Errorf("create frame sink: %w", err)
	}

	frameCount, err := smp.Run(ctx3, source, sink)
	if err != nil {
		spanEx.End()
		log.Error("frame sampling failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "sample_frames: "+err.Error(), log)
	}
	spanEx.End()
	metrics.StageDuration.WithLabelValues("sample").Observe(time.Since(exStart).Seconds())
	metrics.FramesEmittedTotal.Add(float64(frameCount))

	// Archive the frames directory.
	zipStart := time.Now()
	ctx4, spanZip := tracer.Start(ctx, "create_archive")
	archivePath := filepath.Join(workDir, "frames.zip")
	if err := uc.archiver.CreateArchive(ctx4, framesDir, archivePath); err != nil {
		spanZip.End()
		log.Error("archive creation failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "create_archive: "+err.Error(), log)
	}
	spanZip.End()
	metrics.StageDuration.WithLabelValues("archive").Observe(time.Since(zipStart).Seconds())

	// Upload the archive.
	upStart := time.Now()
	ctx5, spanUp := tracer.Start(ctx, "upload_archive")
	archiveKey := fmt.Sprintf("%s/frames_%s.zip", msg.UserID, job.ID.String())
	archiveInfo, err := os.Stat(archivePath)
	if err != nil {
		spanUp.End()
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "stat_archive: "+err.Error(), log)
	}
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		spanUp.End()
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "open_archive: "+err.Error(), log)
	}
	if err := uc.storage.UploadArchive(ctx5, archiveKey, archiveFile, archiveInfo.Size()); err != nil {
		archiveFile.Close()
		spanUp.End()
		log.Error("archive upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_archive: "+err.Error(), log)
	}
	archiveFile.Close()
	spanUp.End()
	metrics.StageDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	job.MarkCompleted(archiveKey, frameCount, duration)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)

	log.Info("job completed successfully",
		zap.Int("frame_count", frameCount),
		zap.Float64("duration_secs", duration),
		zap.String("archive_key", archiveKey),
	)

	return nil
}

func (uc *ExtractVideoUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.ExtractionJob,
	msg entity.ExtractionRequestMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *ExtractVideoUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.ExtractionJob,
	msg entity.ExtractionRequestMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, uc.logger)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.VideoKey, errMsg)
	}

	return nil
}

func (uc *ExtractVideoUseCase) publishStatus(ctx context.Context, job *entity.ExtractionJob, log *zap.Logger) {
	statusMsg := entity.ExtractionStatusMessage{
		JobID:        job.ID,
		UserID:       job.UserID,
		Status:       job.Status,
		VideoKey:     job.VideoKey,
		ArchiveKey:   job.ArchiveKey,
		FrameCount:   job.FrameCount,
		Duration:     job.VideoDuration,
		ErrorMessage: job.ErrorMessage,
		Attempt:      job.Attempt,
		MaxAttempts:  job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}

// orDefault treats 0 as "not set in the message". Negative values pass
// through so they are rejected as invalid config rather than silently
// replaced.
func orDefault(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

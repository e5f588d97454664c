package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/domain/port"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/infra/config"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/infra/email"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/infra/ffmpeg"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/infra/frameio"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/infra/metrics"
	miniostorage "github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/infra/minio"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/infra/postgres"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/infra/rabbitmq"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/infra/tracing"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/infra/video"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/usecase"
	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting frame-extraction worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// Object storage
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:      cfg.MinIOEndpoint,
		AccessKey:     cfg.MinIOAccessKey,
		SecretKey:     cfg.MinIOSecretKey,
		UseSSL:        cfg.MinIOUseSSL,
		VideoBucket:   cfg.MinIOVideoBucket,
		ArchiveBucket: cfg.MinIOArchiveBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	statusPub := rabbitmq.NewStatusPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Infra adapters
	repo := postgres.NewJobRepository(pool)
	opener := video.NewOpener()
	prober := ffmpeg.NewProber(log)
	archiver := ffmpeg.NewArchiver()
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	sinks := func(dir string, format string) (port.FrameSink, error) {
		return frameio.NewWriter(dir, format)
	}

	uc := usecase.NewExtractVideoUseCase(
		repo, storage, opener, prober, archiver,
		statusPub, dlqPub, notifier,
		sinks,
		log,
		usecase.ExtractVideoConfig{
			TempDir:      cfg.TempDir,
			MaxRetries:   cfg.MaxRetries,
			SampleRate:   cfg.SampleRate,
			TargetWidth:  cfg.TargetWidth,
			TargetHeight: cfg.TargetHeight,
			FrameFormat:  cfg.FrameFormat,
		},
	)

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQExtractionQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("frame-extraction worker started, consuming messages")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("frame-extraction worker stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}

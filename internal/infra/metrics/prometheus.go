package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uavdata_extraction_jobs_total",
		Help: "Total number of extraction jobs processed, by outcome",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "uavdata_extraction_stage_duration_seconds",
		Help:    "Duration of each stage of the frame-extraction pipeline",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesEmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uavdata_frames_emitted_total",
		Help: "Total number of sampled frames written across all jobs",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "uavdata_active_workers",
		Help: "Number of workers currently processing extraction jobs",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uavdata_extraction_retry_total",
		Help: "Total number of extraction retries, by attempt",
	}, []string{"attempt"})
)

package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const serviceName = "frame-extraction-service"

// Handler serves the uavdata_* metrics plus the liveness probe the
// worker's deployment manifests point at.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "%s ok", serviceName)
	})
	return mux
}

// StartMetricsServer runs the metrics endpoint alongside the extraction
// worker. The returned server is shut down by the caller.
func StartMetricsServer(ctx context.Context, port int, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: Handler(),
	}

	go func() {
		logger.Info("metrics server starting",
			zap.String("service", serviceName),
			zap.Int("port", port),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()

	return srv
}

package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Pipeline counters. Registered on the default registry so every stage can
// increment them without threading a metrics handle through each component.
var (
	FilesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agripipe",
		Subsystem: "ingestion",
		Name:      "files_ingested_total",
		Help:      "Number of raw files ingested successfully",
	})

	FilesQuarantined = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agripipe",
		Subsystem: "ingestion",
		Name:      "files_quarantined_total",
		Help:      "Number of raw files moved to quarantine",
	})

	RowsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agripipe",
		Subsystem: "ingestion",
		Name:      "rows_ingested_total",
		Help:      "Number of rows read from ingested files",
	})

	FilesTransformed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agripipe",
		Subsystem: "transform",
		Name:      "files_transformed_total",
		Help:      "Number of processed files transformed successfully",
	})

	TransformFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agripipe",
		Subsystem: "transform",
		Name:      "failures_total",
		Help:      "Number of files that failed a transformation substep",
	})

	FilesValidated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agripipe",
		Subsystem: "validation",
		Name:      "files_validated_total",
		Help:      "Number of transformed files checked by the quality validator",
	})

	FilesLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agripipe",
		Subsystem: "storage",
		Name:      "files_loaded_total",
		Help:      "Number of transformed files appended to the analytics dataset",
	})

	PartitionsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agripipe",
		Subsystem: "storage",
		Name:      "partitions_written_total",
		Help:      "Number of partition row groups written",
	})
)

// Server exposes the default registry over HTTP for scraping. Batch runs
// normally leave it disabled; long-lived deployments can turn it on.
type Server struct {
	logger *logrus.Logger
	server *http.Server
}

// NewServer creates a metrics exposition server on the given port.
func NewServer(port int, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		logger: logger,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}
}

// Start serves until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Error("Failed to shut down metrics server")
		}
	}()

	s.logger.WithField("addr", s.server.Addr).Info("Starting metrics server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

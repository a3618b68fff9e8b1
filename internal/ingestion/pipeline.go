package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/agripipe/internal/config"
	"github.com/inferloop/agripipe/internal/observability/metrics"
	"github.com/inferloop/agripipe/internal/storage"
	mathutil "github.com/inferloop/agripipe/internal/utils/math"
	"github.com/inferloop/agripipe/pkg/models"
)

// Runner drives the ingestion stage: scan for new raw files, validate their
// schema, read them, and either quarantine them or republish them unchanged
// under data/processed. Every attempt leaves a checkpoint record and an
// ingest log row, which makes re-runs idempotent.
type Runner struct {
	paths       config.Paths
	checkpoints *CheckpointStore
	scanner     *Scanner
	validator   *SchemaValidator
	profiler    *Profiler
	ingestLog   *IngestLog
	logger      *logrus.Logger
}

// NewRunner wires the ingestion components for the given paths.
func NewRunner(paths config.Paths, logger *logrus.Logger) *Runner {
	if logger == nil {
		logger = logrus.New()
	}
	checkpoints := NewCheckpointStore(paths.Checkpoint, logger)
	return &Runner{
		paths:       paths,
		checkpoints: checkpoints,
		scanner:     NewScanner(paths.RawDir, checkpoints),
		validator:   NewSchemaValidator(),
		profiler:    NewProfiler(),
		ingestLog:   NewIngestLog(paths.IngestLogPath()),
		logger:      logger,
	}
}

// Run ingests every new raw file. File-level failures are isolated: the file
// is quarantined, the checkpoint updated, and processing continues.
func (r *Runner) Run() error {
	files, err := r.scanner.ListNewFiles()
	if err != nil {
		return err
	}
	r.logger.WithField("count", len(files)).Info("Found new files to ingest")

	for _, path := range files {
		r.ingestFile(path)
	}
	return nil
}

func (r *Runner) ingestFile(path string) {
	base := filepath.Base(path)
	start := time.Now()
	log := r.logger.WithField("file", base)

	checksum, err := fileChecksum(path)
	if err != nil {
		log.WithError(err).Warn("Failed to checksum input file")
	}

	schema, err := r.validator.Inspect(path)
	if err != nil {
		log.WithError(err).Error("Unreadable parquet footer, quarantining")
		r.quarantine(path, checksum, models.StatusFailed, err.Error(), start)
		return
	}
	if !schema.OK {
		log.WithField("missing", schema.Missing).Error("Schema mismatch, quarantining")
		r.quarantine(path, checksum, models.StatusQuarantined,
			fmt.Sprintf("missing columns: %s", strings.Join(schema.Missing, ",")), start)
		return
	}
	if len(schema.Extra) > 0 {
		log.WithField("extra", schema.Extra).Warn("File carries extra columns")
	}

	rows, err := storage.ReadReadings(path)
	if err != nil {
		log.WithError(err).Error("Failed to read file, quarantining")
		r.quarantine(path, checksum, models.StatusFailed, err.Error(), start)
		return
	}

	// A required numeric column with no non-null values cannot be imputed
	// downstream; treat it like a schema failure.
	if col := allNullColumn(rows); col != "" {
		log.WithField("column", col).Error("Column has no non-null values, quarantining")
		r.quarantine(path, checksum, models.StatusQuarantined,
			fmt.Sprintf("column %s has no non-null values", col), start)
		return
	}

	profile := r.profiler.Profile(base, rows)
	for _, summary := range profile.ReadingSummary {
		log.WithFields(logrus.Fields{
			"reading_type": summary.ReadingType,
			"count":        summary.RecordCount,
			"avg":          summary.AvgValue,
			"min":          summary.MinValue,
			"max":          summary.MaxValue,
			"avg_battery":  summary.AvgBattery,
		}).Info("Ingestion summary")
	}

	stem := strings.TrimSuffix(base, filepath.Ext(base))
	outPath := filepath.Join(r.paths.ProcessedDir, stem+"_processed.parquet")
	if err := storage.WriteReadings(outPath, rows); err != nil {
		log.WithError(err).Error("Failed to write processed file")
		r.record(base, checksum, 0, models.StatusFailed, err.Error(), start)
		return
	}

	r.record(base, checksum, len(rows), models.StatusSuccess, "", start)
	metrics.FilesIngested.Inc()
	metrics.RowsIngested.Add(float64(len(rows)))
	log.WithFields(logrus.Fields{
		"rows":     len(rows),
		"output":   outPath,
		"duration": durationSec(start),
	}).Info("Ingested file")
}

// quarantine moves the original bytes aside for post-mortem and records the
// terminal outcome.
func (r *Runner) quarantine(path, checksum, status, reason string, start time.Time) {
	base := filepath.Base(path)

	if err := os.MkdirAll(r.paths.QuarantineDir, 0755); err != nil {
		r.logger.WithError(err).Error("Failed to create quarantine directory")
	} else if err := os.Rename(path, filepath.Join(r.paths.QuarantineDir, base)); err != nil {
		r.logger.WithError(err).WithField("file", base).Error("Failed to move file to quarantine")
	} else {
		r.logger.WithField("file", base).Info("Moved file to quarantine")
	}

	metrics.FilesQuarantined.Inc()
	r.record(base, checksum, 0, status, reason, start)
}

func (r *Runner) record(base, checksum string, rows int, status, errMsg string, start time.Time) {
	now := time.Now().UTC().Format("2006-01-02T15:04:05Z")

	if err := r.checkpoints.Record(base, models.CheckpointRecord{
		Checksum:    checksum,
		Rows:        rows,
		Status:      status,
		ProcessedAt: now,
		Error:       errMsg,
	}); err != nil {
		r.logger.WithError(err).WithField("file", base).Error("Failed to update checkpoint")
	}

	if err := r.ingestLog.Append(models.IngestionLogEntry{
		Filename:    base,
		Rows:        rows,
		Status:      status,
		Error:       errMsg,
		DurationSec: durationSec(start),
		Timestamp:   now,
	}); err != nil {
		r.logger.WithError(err).WithField("file", base).Error("Failed to append ingest log")
	}
}

func durationSec(start time.Time) float64 {
	return mathutil.Round2(time.Since(start).Seconds())
}

// allNullColumn returns the name of the first required numeric column with
// zero non-null entries, or "" when both columns carry data.
func allNullColumn(rows []models.Reading) string {
	if len(rows) == 0 {
		return ""
	}
	hasValue, hasBattery := false, false
	for _, row := range rows {
		if row.Value != nil {
			hasValue = true
		}
		if row.BatteryLevel != nil {
			hasBattery = true
		}
		if hasValue && hasBattery {
			return ""
		}
	}
	if !hasValue {
		return "value"
	}
	return "battery_level"
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

package transform

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/agripipe/internal/config"
	"github.com/inferloop/agripipe/internal/observability/metrics"
	"github.com/inferloop/agripipe/internal/storage"
	"github.com/inferloop/agripipe/pkg/errors"
)

// Runner pipes every processed file through the four transformation steps
// and writes the _transformed output. A failure in any substep aborts only
// that file.
type Runner struct {
	paths      config.Paths
	cleaner    *Cleaner
	calibrator *Calibrator
	timestamps *TimestampProcessor
	features   *FeatureEngineer
	logger     *logrus.Logger
}

// NewRunner wires the transformation steps for the given paths and sensor
// config.
func NewRunner(paths config.Paths, sensors config.SensorConfig, logger *logrus.Logger) *Runner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Runner{
		paths:      paths,
		cleaner:    NewCleaner(sensors, logger),
		calibrator: NewCalibrator(sensors, logger),
		timestamps: NewTimestampProcessor(logger),
		features:   NewFeatureEngineer(sensors, logger),
		logger:     logger,
	}
}

// Run transforms every *_processed.parquet file in lexicographic order.
func (r *Runner) Run() error {
	pattern := filepath.Join(r.paths.ProcessedDir, "*_processed.parquet")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	sort.Strings(files)

	if len(files) == 0 {
		r.logger.Warn("No processed files found, run ingestion first")
		return nil
	}

	for _, file := range files {
		if err := r.TransformFile(file); err != nil {
			metrics.TransformFailures.Inc()
			r.logger.WithError(err).WithField("file", filepath.Base(file)).Error("Transformation failed")
			continue
		}
		metrics.FilesTransformed.Inc()
	}
	return nil
}

// TransformFile runs Cleaner → Calibration → TimestampProcessor →
// FeatureEngineer over one processed file and writes the transformed output
// next to it.
func (r *Runner) TransformFile(path string) error {
	base := filepath.Base(path)
	r.logger.WithField("file", base).Info("Starting transformation")

	rows, err := storage.ReadReadings(path)
	if err != nil {
		return err
	}

	cleaned := r.cleaner.Clean(rows)
	r.calibrator.Apply(cleaned)
	enriched, _ := r.timestamps.Process(cleaned)
	if len(enriched) == 0 {
		return errors.NewTransformError(errors.CodeNoValidTimestamps,
			fmt.Sprintf("no rows with parseable timestamps in %s", base))
	}
	enriched = r.features.Derive(enriched)

	stem := strings.TrimSuffix(base, filepath.Ext(base))
	outName := strings.Replace(stem, "_processed", "_transformed", 1) + ".parquet"
	outPath := filepath.Join(r.paths.TransformedDir, outName)
	if err := storage.WriteEnriched(outPath, enriched); err != nil {
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"file":   base,
		"rows":   len(enriched),
		"output": outPath,
	}).Info("Transformed file written")
	return nil
}

package validation

import (
	"encoding/json"
	"math"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inferloop/agripipe/internal/config"
	"github.com/inferloop/agripipe/internal/observability/metrics"
	"github.com/inferloop/agripipe/internal/storage"
	mathutil "github.com/inferloop/agripipe/internal/utils/math"
	"github.com/inferloop/agripipe/internal/utils/timeutil"
	"github.com/inferloop/agripipe/pkg/models"
)

// QualityValidator runs the post-transformation quality checks: type and
// timestamp validity, configured range coverage, per-type missing ratios,
// and hourly gap detection per sensor. One report row is produced per
// transformed file; a file that fails validation gets a sentinel row instead
// of halting the stage.
type QualityValidator struct {
	paths       config.Paths
	sensors     config.SensorConfig
	logger      *logrus.Logger
	concurrency int
}

// NewQualityValidator creates a validator over the transformed directory.
func NewQualityValidator(paths config.Paths, sensors config.SensorConfig, logger *logrus.Logger) *QualityValidator {
	if logger == nil {
		logger = logrus.New()
	}
	return &QualityValidator{
		paths:       paths,
		sensors:     sensors,
		logger:      logger,
		concurrency: 4,
	}
}

// Run validates every transformed file and writes the consolidated report
// exactly once. Files are checked concurrently; the report is assembled
// under a mutex and sorted by file name so re-runs produce identical bytes.
func (v *QualityValidator) Run() error {
	pattern := filepath.Join(v.paths.TransformedDir, "*_transformed.parquet")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	sort.Strings(files)

	if len(files) == 0 {
		v.logger.Warn("No transformed files found, run transformation first")
		return nil
	}

	var (
		mu      sync.Mutex
		reports []models.QualityReport
	)

	g := new(errgroup.Group)
	g.SetLimit(v.concurrency)
	for _, file := range files {
		file := file
		g.Go(func() error {
			report := v.ValidateFile(file)
			mu.Lock()
			reports = append(reports, report)
			mu.Unlock()
			metrics.FilesValidated.Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].FileName < reports[j].FileName })
	if err := WriteReport(v.paths.QualityReportPath(), reports); err != nil {
		return err
	}
	v.logger.WithFields(logrus.Fields{
		"files":  len(reports),
		"report": v.paths.QualityReportPath(),
	}).Info("Data quality report written")
	return nil
}

// ValidateFile computes the quality report row for one transformed file.
func (v *QualityValidator) ValidateFile(path string) models.QualityReport {
	base := filepath.Base(path)
	log := v.logger.WithField("file", base)

	rows, err := storage.ReadEnriched(path)
	if err != nil {
		log.WithError(err).Error("Validation failed to read file")
		return failedReport(base, err)
	}

	report := models.QualityReport{
		FileName:     base,
		TotalRecords: len(rows),
	}

	typeTotals := make(map[string]int)
	typeMissing := make(map[string]int)
	typeOutliers := make(map[string]int)
	sensorHours := make(map[string]map[time.Time]bool)

	for _, row := range rows {
		if row.Value == nil || math.IsNaN(*row.Value) {
			report.InvalidValueType++
		}

		var ts time.Time
		tsValid := false
		if row.Timestamp != nil {
			if parsed, err := timeutil.Parse(*row.Timestamp); err == nil {
				ts, tsValid = parsed, true
			}
		}
		if !tsValid {
			report.InvalidTimestamp++
		}

		if row.ReadingType != nil {
			rt := *row.ReadingType
			typeTotals[rt]++
			if row.Value == nil {
				typeMissing[rt]++
			} else {
				threshold, _ := v.sensors.Lookup(rt)
				if *row.Value < threshold.Min || *row.Value > threshold.Max {
					typeOutliers[rt]++
				}
			}
		}

		if tsValid && row.SensorID != nil {
			hour := timeutil.FloorHour(ts)
			if sensorHours[*row.SensorID] == nil {
				sensorHours[*row.SensorID] = make(map[time.Time]bool)
			}
			sensorHours[*row.SensorID][hour] = true
		}
	}

	outlierPct := make(map[string]float64, len(typeTotals))
	missingPct := make(map[string]float64, len(typeTotals))
	for rt, total := range typeTotals {
		outlierPct[rt] = mathutil.Round2(100 * float64(typeOutliers[rt]) / float64(total))
		missingPct[rt] = mathutil.Round2(100 * float64(typeMissing[rt]) / float64(total))
	}
	report.OutlierPct = encodeJSONMap(outlierPct)
	report.MissingPct = encodeJSONMap(missingPct)

	report.SensorsWithGaps, report.TotalMissingHours = hourlyGaps(sensorHours)

	log.WithFields(logrus.Fields{
		"total_records":       report.TotalRecords,
		"invalid_value_type":  report.InvalidValueType,
		"invalid_timestamp":   report.InvalidTimestamp,
		"sensors_with_gaps":   report.SensorsWithGaps,
		"total_missing_hours": report.TotalMissingHours,
	}).Info("Validation summary")
	return report
}

// hourlyGaps counts, per sensor, the hourly buckets between the first and
// last observed hour (inclusive) with no reading. Covered hours are already
// deduplicated, so the count is the expected span minus the covered set.
func hourlyGaps(sensorHours map[string]map[time.Time]bool) (sensorsWithGaps, totalMissing int) {
	for _, hours := range sensorHours {
		if len(hours) == 0 {
			continue
		}
		var min, max time.Time
		first := true
		for h := range hours {
			if first || h.Before(min) {
				min = h
			}
			if first || h.After(max) {
				max = h
			}
			first = false
		}
		expected := int(max.Sub(min)/time.Hour) + 1
		missing := expected - len(hours)
		if missing > 0 {
			sensorsWithGaps++
			totalMissing += missing
		}
	}
	return sensorsWithGaps, totalMissing
}

func encodeJSONMap(m map[string]float64) string {
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func failedReport(fileName string, err error) models.QualityReport {
	return models.QualityReport{
		FileName:          fileName,
		TotalRecords:      -1,
		InvalidValueType:  -1,
		InvalidTimestamp:  -1,
		OutlierPct:        "{}",
		MissingPct:        "{}",
		SensorsWithGaps:   -1,
		TotalMissingHours: -1,
		Error:             err.Error(),
	}
}

package transform

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/agripipe/internal/config"
	mathutil "github.com/inferloop/agripipe/internal/utils/math"
	"github.com/inferloop/agripipe/pkg/models"
)

// Cleaner repairs a row batch before calibration: stable deduplication,
// dropping rows without a usable key, mean imputation of the numeric
// columns, and per-type outlier correction.
type Cleaner struct {
	sensors config.SensorConfig
	logger  *logrus.Logger
}

// NewCleaner creates a cleaner using the configured sensor thresholds for
// small-sample outlier clipping.
func NewCleaner(sensors config.SensorConfig, logger *logrus.Logger) *Cleaner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Cleaner{sensors: sensors, logger: logger}
}

// Clean applies the four cleaning steps in order and returns the surviving
// rows. Input order is preserved; on duplicate keys the first occurrence
// wins.
func (c *Cleaner) Clean(rows []models.Reading) []models.Reading {
	cleaned := c.dropDuplicatesAndNullKeys(rows)
	c.imputeNumericColumns(cleaned)
	c.correctOutliers(cleaned)
	c.logger.WithFields(logrus.Fields{
		"in":  len(rows),
		"out": len(cleaned),
	}).Info("Cleaning complete")
	return cleaned
}

func (c *Cleaner) dropDuplicatesAndNullKeys(rows []models.Reading) []models.Reading {
	seen := make(map[string]bool, len(rows))
	out := make([]models.Reading, 0, len(rows))
	dropped, duplicates := 0, 0

	for _, row := range rows {
		key := dedupKey(row)
		if seen[key] {
			duplicates++
			continue
		}
		seen[key] = true

		if row.SensorID == nil || *row.SensorID == "" ||
			row.Timestamp == nil || *row.Timestamp == "" ||
			row.ReadingType == nil || *row.ReadingType == "" {
			dropped++
			continue
		}
		out = append(out, row)
	}

	if duplicates > 0 || dropped > 0 {
		c.logger.WithFields(logrus.Fields{
			"duplicates":   duplicates,
			"missing_keys": dropped,
		}).Info("Dropped unusable rows")
	}
	return out
}

// dedupKey builds the (sensor_id, timestamp, reading_type) identity. Null
// fields participate as a sentinel so duplicate all-null rows also collapse.
func dedupKey(row models.Reading) string {
	str := func(p *string) string {
		if p == nil {
			return "\x00"
		}
		return *p
	}
	return fmt.Sprintf("%s\x1f%s\x1f%s", str(row.SensorID), str(row.Timestamp), str(row.ReadingType))
}

// imputeNumericColumns replaces null value and battery_level entries with
// the column mean over the batch. A column with no non-null entries stays
// null; that is an upstream quarantine condition, not a cleaning failure.
func (c *Cleaner) imputeNumericColumns(rows []models.Reading) {
	var values, batteries []float64
	for _, row := range rows {
		if row.Value != nil {
			values = append(values, *row.Value)
		}
		if row.BatteryLevel != nil {
			batteries = append(batteries, *row.BatteryLevel)
		}
	}

	imputed := 0
	for i := range rows {
		if rows[i].Value == nil && len(values) > 0 {
			rows[i].Value = models.Float64Ptr(mathutil.Mean(values))
			imputed++
		}
		if rows[i].BatteryLevel == nil && len(batteries) > 0 {
			rows[i].BatteryLevel = models.Float64Ptr(mathutil.Mean(batteries))
			imputed++
		}
	}
	if imputed > 0 {
		c.logger.WithField("filled", imputed).Info("Imputed missing numeric entries")
	}
}

// correctOutliers fixes implausible values per reading_type group. Groups
// with at least five readings use a population z-score cut at 3 and replace
// flagged values with the pre-replacement group median; smaller groups fall
// back to clipping against the configured range. A zero-variance group
// flags nothing.
func (c *Cleaner) correctOutliers(rows []models.Reading) {
	groups := make(map[string][]int)
	for i, row := range rows {
		if row.ReadingType == nil || row.Value == nil {
			continue
		}
		groups[*row.ReadingType] = append(groups[*row.ReadingType], i)
	}

	for readingType, idx := range groups {
		values := make([]float64, len(idx))
		for j, i := range idx {
			values[j] = *rows[i].Value
		}

		if len(idx) < 5 {
			threshold, _ := c.sensors.Lookup(readingType)
			clipped := 0
			for _, i := range idx {
				v := *rows[i].Value
				if v < threshold.Min || v > threshold.Max {
					rows[i].Value = models.Float64Ptr(mathutil.Clip(v, threshold.Min, threshold.Max))
					clipped++
				}
			}
			if clipped > 0 {
				c.logger.WithFields(logrus.Fields{
					"reading_type": readingType,
					"clipped":      clipped,
				}).Warn("Small sample fallback, clipped values to configured range")
			}
			continue
		}

		mu := mathutil.Mean(values)
		sigma := mathutil.PopulationStandardDeviation(values)
		if sigma == 0 {
			continue
		}
		median := mathutil.Median(values)

		corrected := 0
		for j, i := range idx {
			if z := (values[j] - mu) / sigma; z > 3 || z < -3 {
				rows[i].Value = models.Float64Ptr(median)
				corrected++
			}
		}
		if corrected > 0 {
			c.logger.WithFields(logrus.Fields{
				"reading_type": readingType,
				"corrected":    corrected,
			}).Info("Corrected outliers via z-score")
		}
	}
}

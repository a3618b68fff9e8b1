package ingestion

import (
	"sort"

	mathutil "github.com/inferloop/agripipe/internal/utils/math"
	"github.com/inferloop/agripipe/pkg/models"
)

// Profiler computes per-reading-type summary statistics over a row batch.
// The output feeds the ingestion log only; nothing downstream depends on it.
type Profiler struct{}

// NewProfiler creates a profiler.
func NewProfiler() *Profiler {
	return &Profiler{}
}

// Profile summarizes rows grouped by reading_type, plus column-wise missing
// ratios and distinct counts. Numeric outputs are rounded to two decimals.
func (p *Profiler) Profile(fileName string, rows []models.Reading) models.FileProfile {
	byType := make(map[string][]models.Reading)
	sensors := make(map[string]bool)

	missing := map[string]int{
		"sensor_id":     0,
		"timestamp":     0,
		"reading_type":  0,
		"value":         0,
		"battery_level": 0,
	}

	for _, row := range rows {
		if row.SensorID == nil {
			missing["sensor_id"]++
		} else {
			sensors[*row.SensorID] = true
		}
		if row.Timestamp == nil {
			missing["timestamp"]++
		}
		if row.Value == nil {
			missing["value"]++
		}
		if row.BatteryLevel == nil {
			missing["battery_level"]++
		}
		if row.ReadingType == nil {
			missing["reading_type"]++
			continue
		}
		byType[*row.ReadingType] = append(byType[*row.ReadingType], row)
	}

	types := make([]string, 0, len(byType))
	for rt := range byType {
		types = append(types, rt)
	}
	sort.Strings(types)

	summary := make([]models.ReadingTypeProfile, 0, len(types))
	for _, rt := range types {
		group := byType[rt]
		var values, batteries []float64
		for _, row := range group {
			if row.Value != nil {
				values = append(values, *row.Value)
			}
			if row.BatteryLevel != nil {
				batteries = append(batteries, *row.BatteryLevel)
			}
		}
		summary = append(summary, models.ReadingTypeProfile{
			ReadingType: rt,
			RecordCount: len(group),
			AvgValue:    mathutil.Round2(mathutil.Mean(values)),
			MinValue:    mathutil.Round2(mathutil.Min(values)),
			MaxValue:    mathutil.Round2(mathutil.Max(values)),
			AvgBattery:  mathutil.Round2(mathutil.Mean(batteries)),
		})
	}

	ratios := make(map[string]float64, len(missing))
	for col, count := range missing {
		if len(rows) == 0 {
			ratios[col] = 0
			continue
		}
		ratios[col] = mathutil.Round2(float64(count) / float64(len(rows)))
	}

	return models.FileProfile{
		FileName:             fileName,
		ReadingSummary:       summary,
		MissingRatio:         ratios,
		DistinctSensors:      len(sensors),
		DistinctReadingTypes: len(byType),
	}
}

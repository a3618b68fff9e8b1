package transform

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/agripipe/internal/config"
	mathutil "github.com/inferloop/agripipe/internal/utils/math"
	"github.com/inferloop/agripipe/internal/utils/timeutil"
	"github.com/inferloop/agripipe/pkg/models"
)

// FeatureEngineer derives the analytical columns over a transformed batch:
// calendar date, daily averages, trailing 7-row rolling averages, and the
// config-driven anomaly flag. All grouping happens within the batch; there
// is no cross-file state.
type FeatureEngineer struct {
	sensors config.SensorConfig
	logger  *logrus.Logger
}

// NewFeatureEngineer creates a feature engineer over the sensor config.
func NewFeatureEngineer(sensors config.SensorConfig, logger *logrus.Logger) *FeatureEngineer {
	if logger == nil {
		logger = logrus.New()
	}
	return &FeatureEngineer{sensors: sensors, logger: logger}
}

type groupKey struct {
	sensorID    string
	readingType string
}

// Derive fills date, daily_avg, rolling_7d_avg and anomalous_reading. Rows
// are returned sorted by (sensor_id, reading_type, timestamp), ties broken
// by ingestion order, which keeps the rolling window deterministic across
// re-runs of the same input.
func (f *FeatureEngineer) Derive(rows []models.EnrichedReading) []models.EnrichedReading {
	for i := range rows {
		if rows[i].Timestamp == nil {
			continue
		}
		if ts, err := timeutil.Parse(*rows[i].Timestamp); err == nil {
			rows[i].Date = models.StrPtr(timeutil.FormatDate(ts))
		}
	}

	f.deriveDailyAverage(rows)
	f.deriveRollingAverage(rows)
	f.flagAnomalies(rows)

	f.logger.WithField("rows", len(rows)).Info("Derived features")
	return rows
}

type dailyKey struct {
	groupKey
	date string
}

func (f *FeatureEngineer) deriveDailyAverage(rows []models.EnrichedReading) {
	sums := make(map[dailyKey]float64)
	counts := make(map[dailyKey]int)
	for _, row := range rows {
		key, ok := dailyKeyOf(row)
		if !ok {
			continue
		}
		sums[key] += *row.Value
		counts[key]++
	}

	for i := range rows {
		key, ok := dailyKeyOf(rows[i])
		if !ok {
			continue
		}
		rows[i].DailyAvg = models.Float64Ptr(sums[key] / float64(counts[key]))
	}
}

func dailyKeyOf(row models.EnrichedReading) (dailyKey, bool) {
	if row.SensorID == nil || row.ReadingType == nil || row.Date == nil || row.Value == nil {
		return dailyKey{}, false
	}
	return dailyKey{
		groupKey: groupKey{sensorID: *row.SensorID, readingType: *row.ReadingType},
		date:     *row.Date,
	}, true
}

func (f *FeatureEngineer) deriveRollingAverage(rows []models.EnrichedReading) {
	// Stable sort keeps ingestion order for identical timestamps, which
	// pins the rolling window to one deterministic ordering.
	sort.SliceStable(rows, func(i, j int) bool {
		si, sj := deref(rows[i].SensorID), deref(rows[j].SensorID)
		if si != sj {
			return si < sj
		}
		ri, rj := deref(rows[i].ReadingType), deref(rows[j].ReadingType)
		if ri != rj {
			return ri < rj
		}
		return deref(rows[i].Timestamp) < deref(rows[j].Timestamp)
	})

	groups := make(map[groupKey][]int)
	for i, row := range rows {
		if row.SensorID == nil || row.ReadingType == nil || row.Value == nil {
			continue
		}
		key := groupKey{sensorID: *row.SensorID, readingType: *row.ReadingType}
		groups[key] = append(groups[key], i)
	}

	for _, idx := range groups {
		values := make([]float64, len(idx))
		for j, i := range idx {
			values[j] = *rows[i].Value
		}
		rolling := mathutil.TrailingMean(values, 7)
		for j, i := range idx {
			rows[i].Rolling7dAvg = models.Float64Ptr(rolling[j])
		}
	}
}

func (f *FeatureEngineer) flagAnomalies(rows []models.EnrichedReading) {
	flagged := 0
	for i := range rows {
		anomalous := false
		if rows[i].ReadingType != nil && rows[i].Value != nil {
			threshold, ok := f.sensors.Lookup(*rows[i].ReadingType)
			if ok && (*rows[i].Value < threshold.Min || *rows[i].Value > threshold.Max) {
				anomalous = true
				flagged++
			}
		}
		rows[i].Anomalous = models.BoolPtr(anomalous)
	}
	if flagged > 0 {
		f.logger.WithField("flagged", flagged).Warn("Flagged anomalous readings")
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

package validation

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/agripipe/internal/config"
	"github.com/inferloop/agripipe/internal/storage"
	"github.com/inferloop/agripipe/pkg/models"
)

func validationPaths(t *testing.T) config.Paths {
	base := t.TempDir()
	return config.Paths{
		TransformedDir: filepath.Join(base, "processed"),
		MetadataDir:    filepath.Join(base, "metadata"),
	}
}

func testSensors() config.SensorConfig {
	return config.SensorConfig{
		"temperature": {Min: 0, Max: 50},
		"humidity":    {Min: 0, Max: 100},
	}
}

func enriched(sensorID, ts, readingType string, value float64) models.EnrichedReading {
	return models.EnrichedReading{
		SensorID:     models.StrPtr(sensorID),
		Timestamp:    models.StrPtr(ts),
		ReadingType:  models.StrPtr(readingType),
		Value:        models.Float64Ptr(value),
		BatteryLevel: models.Float64Ptr(90.0),
	}
}

func writeTransformed(t *testing.T, paths config.Paths, name string, rows []models.EnrichedReading) {
	t.Helper()
	require.NoError(t, storage.WriteEnriched(filepath.Join(paths.TransformedDir, name), rows))
}

func TestValidateFileCountsHourlyGaps(t *testing.T) {
	paths := validationPaths(t)
	name := "day1_transformed.parquet"
	writeTransformed(t, paths, name, []models.EnrichedReading{
		enriched("s1", "2025-06-05T10:00:00", "temperature", 25.0),
		enriched("s1", "2025-06-05T11:00:00", "temperature", 26.0),
		enriched("s1", "2025-06-05T13:00:00", "temperature", 27.0),
	})

	validator := NewQualityValidator(paths, testSensors(), logrus.New())
	report := validator.ValidateFile(filepath.Join(paths.TransformedDir, name))

	assert.Equal(t, 3, report.TotalRecords)
	assert.Equal(t, 1, report.SensorsWithGaps)
	assert.Equal(t, 1, report.TotalMissingHours)
}

func TestValidateFileNoGapForContinuousCoverage(t *testing.T) {
	paths := validationPaths(t)
	name := "day1_transformed.parquet"
	writeTransformed(t, paths, name, []models.EnrichedReading{
		enriched("s1", "2025-06-05T10:05:00", "temperature", 25.0),
		enriched("s1", "2025-06-05T11:55:00", "temperature", 26.0),
	})

	validator := NewQualityValidator(paths, testSensors(), logrus.New())
	report := validator.ValidateFile(filepath.Join(paths.TransformedDir, name))

	assert.Equal(t, 0, report.SensorsWithGaps)
	assert.Equal(t, 0, report.TotalMissingHours)
}

func TestValidateFileOutlierAndMissingPercentages(t *testing.T) {
	paths := validationPaths(t)
	name := "day1_transformed.parquet"

	nullValue := enriched("s1", "2025-06-05T12:00:00", "temperature", 0)
	nullValue.Value = nil

	writeTransformed(t, paths, name, []models.EnrichedReading{
		enriched("s1", "2025-06-05T10:00:00", "temperature", 25.0),
		enriched("s1", "2025-06-05T11:00:00", "temperature", 75.0),
		nullValue,
		enriched("s2", "2025-06-05T10:00:00", "humidity", 55.0),
	})

	validator := NewQualityValidator(paths, testSensors(), logrus.New())
	report := validator.ValidateFile(filepath.Join(paths.TransformedDir, name))

	assert.Equal(t, 4, report.TotalRecords)
	assert.Equal(t, 1, report.InvalidValueType)

	var outlierPct map[string]float64
	require.NoError(t, json.Unmarshal([]byte(report.OutlierPct), &outlierPct))
	// One of three temperature rows exceeds max=50.
	assert.Equal(t, 33.33, outlierPct["temperature"])
	assert.Equal(t, 0.0, outlierPct["humidity"])

	var missingPct map[string]float64
	require.NoError(t, json.Unmarshal([]byte(report.MissingPct), &missingPct))
	assert.Equal(t, 33.33, missingPct["temperature"])
	assert.Equal(t, 0.0, missingPct["humidity"])
}

func TestValidateFileUnknownTypeUsesUnboundedRange(t *testing.T) {
	paths := validationPaths(t)
	name := "day1_transformed.parquet"
	writeTransformed(t, paths, name, []models.EnrichedReading{
		enriched("s1", "2025-06-05T10:00:00", "wind_speed", 1e12),
	})

	validator := NewQualityValidator(paths, testSensors(), logrus.New())
	report := validator.ValidateFile(filepath.Join(paths.TransformedDir, name))

	var outlierPct map[string]float64
	require.NoError(t, json.Unmarshal([]byte(report.OutlierPct), &outlierPct))
	// Present in counts, never out of range.
	assert.Equal(t, 0.0, outlierPct["wind_speed"])
}

func TestValidateFileCountsInvalidTimestamps(t *testing.T) {
	paths := validationPaths(t)
	name := "day1_transformed.parquet"

	bad := enriched("s1", "NOT_A_TIMESTAMP", "temperature", 25.0)
	missing := enriched("s1", "", "temperature", 25.0)
	missing.Timestamp = nil

	writeTransformed(t, paths, name, []models.EnrichedReading{
		enriched("s1", "2025-06-05T10:00:00", "temperature", 25.0),
		bad,
		missing,
	})

	validator := NewQualityValidator(paths, testSensors(), logrus.New())
	report := validator.ValidateFile(filepath.Join(paths.TransformedDir, name))

	assert.Equal(t, 2, report.InvalidTimestamp)
	// Unparseable timestamps are excluded from the gap computation.
	assert.Equal(t, 0, report.SensorsWithGaps)
}

func TestRunWritesConsolidatedReport(t *testing.T) {
	paths := validationPaths(t)
	writeTransformed(t, paths, "b_transformed.parquet", []models.EnrichedReading{
		enriched("s1", "2025-06-05T10:00:00", "temperature", 25.0),
	})
	writeTransformed(t, paths, "a_transformed.parquet", []models.EnrichedReading{
		enriched("s2", "2025-06-05T10:00:00", "humidity", 55.0),
	})

	validator := NewQualityValidator(paths, testSensors(), logrus.New())
	require.NoError(t, validator.Run())

	f, err := os.Open(paths.QualityReportPath())
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"file_name", "total_records", "invalid_value_type", "invalid_timestamp",
		"outlier_%", "missing_%", "sensors_with_gaps", "total_missing_hours", "error",
	}, records[0])

	// Rows are sorted by file name regardless of validation order.
	assert.Equal(t, "a_transformed.parquet", records[1][0])
	assert.Equal(t, "b_transformed.parquet", records[2][0])
}

func TestValidateFileFailureEmitsSentinelRow(t *testing.T) {
	paths := validationPaths(t)
	require.NoError(t, os.MkdirAll(paths.TransformedDir, 0755))
	name := "broken_transformed.parquet"
	require.NoError(t, os.WriteFile(filepath.Join(paths.TransformedDir, name), []byte("junk"), 0644))

	validator := NewQualityValidator(paths, testSensors(), logrus.New())
	report := validator.ValidateFile(filepath.Join(paths.TransformedDir, name))

	assert.Equal(t, -1, report.TotalRecords)
	assert.Equal(t, -1, report.SensorsWithGaps)
	assert.NotEmpty(t, report.Error)

	// The stage still writes a report containing the sentinel row.
	require.NoError(t, validator.Run())
	_, err := os.Stat(paths.QualityReportPath())
	assert.NoError(t, err)
}

func TestRunNoTransformedFilesWritesNothing(t *testing.T) {
	paths := validationPaths(t)

	validator := NewQualityValidator(paths, testSensors(), logrus.New())
	require.NoError(t, validator.Run())

	_, err := os.Stat(paths.QualityReportPath())
	assert.True(t, os.IsNotExist(err))
}

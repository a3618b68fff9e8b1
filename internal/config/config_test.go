package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPathsDefaults(t *testing.T) {
	paths, err := LoadPaths()
	require.NoError(t, err)

	assert.Equal(t, "data/raw", paths.RawDir)
	assert.Equal(t, "data/processed", paths.ProcessedDir)
	assert.Equal(t, "data/processed", paths.TransformedDir)
	assert.Equal(t, "data/quarantine", paths.QuarantineDir)
	assert.Equal(t, "data/analytics", paths.AnalyticsDir)
	assert.Equal(t, "config/sensor_config.json", paths.SensorConfig)
	assert.Equal(t, "state/checkpoints.json", paths.Checkpoint)
	assert.Equal(t, "metadata/ingest_log.csv", paths.IngestLogPath())
	assert.Equal(t, "metadata/data_quality_report.csv", paths.QualityReportPath())
}

func TestLoadPathsEnvOverride(t *testing.T) {
	t.Setenv("RAW_DATA_PATH", "/mnt/ingest/raw")
	t.Setenv("CHECKPOINT_PATH", "/mnt/state/checkpoints.json")

	paths, err := LoadPaths()
	require.NoError(t, err)

	assert.Equal(t, "/mnt/ingest/raw", paths.RawDir)
	assert.Equal(t, "/mnt/state/checkpoints.json", paths.Checkpoint)
	assert.Equal(t, "data/processed", paths.ProcessedDir)
}

func TestLoadSensorConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sensor_config.json")
	payload := `{
		"temperature": {"min": 0, "max": 50, "calibration": {"multiplier": 1.02, "offset": 0.5}},
		"humidity": {"min": 0, "max": 100, "calibration": {"multiplier": 0.98, "offset": 0.3}}
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0644))

	cfg, err := LoadSensorConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg, 2)

	temp, ok := cfg.Lookup("temperature")
	assert.True(t, ok)
	assert.Equal(t, 0.0, temp.Min)
	assert.Equal(t, 50.0, temp.Max)
	assert.Equal(t, 1.02, temp.Calibration.Multiplier)
	assert.Equal(t, 0.5, temp.Calibration.Offset)
}

func TestLookupUnknownTypeReturnsNeutralDefault(t *testing.T) {
	cfg := SensorConfig{}

	threshold, ok := cfg.Lookup("wind_speed")
	assert.False(t, ok)
	assert.True(t, math.IsInf(threshold.Min, -1))
	assert.True(t, math.IsInf(threshold.Max, 1))
	assert.Equal(t, 1.0, threshold.Calibration.Multiplier)
	assert.Equal(t, 0.0, threshold.Calibration.Offset)
}

func TestLoadSensorConfigMissingFileIsFatal(t *testing.T) {
	_, err := LoadSensorConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadSensorConfigUnparseableIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensor_config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadSensorConfig(path)
	require.Error(t, err)
}

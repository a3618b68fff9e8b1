package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/spf13/viper"

	"github.com/inferloop/agripipe/pkg/errors"
)

// Paths holds every directory and file location the pipeline touches.
// Values come from the environment with local defaults, so test sandboxes
// and deployments can relocate the whole tree without code changes.
type Paths struct {
	RawDir         string `mapstructure:"raw_data_path"`
	ProcessedDir   string `mapstructure:"processed_data_path"`
	TransformedDir string `mapstructure:"transformed_data_path"`
	QuarantineDir  string `mapstructure:"quarantine_data_path"`
	AnalyticsDir   string `mapstructure:"analytics_data_path"`
	SensorConfig   string `mapstructure:"sensor_config_path"`
	Checkpoint     string `mapstructure:"checkpoint_path"`
	MetadataDir    string `mapstructure:"metadata_path"`
}

// IngestLogPath returns the ingest log location under the metadata directory.
func (p Paths) IngestLogPath() string {
	return p.MetadataDir + "/ingest_log.csv"
}

// QualityReportPath returns the quality report location under the metadata directory.
func (p Paths) QualityReportPath() string {
	return p.MetadataDir + "/data_quality_report.csv"
}

// LoadPaths resolves the pipeline directory layout from the environment.
func LoadPaths() (Paths, error) {
	v := viper.New()
	v.SetDefault("raw_data_path", "data/raw")
	v.SetDefault("processed_data_path", "data/processed")
	v.SetDefault("transformed_data_path", "data/processed")
	v.SetDefault("quarantine_data_path", "data/quarantine")
	v.SetDefault("analytics_data_path", "data/analytics")
	v.SetDefault("sensor_config_path", "config/sensor_config.json")
	v.SetDefault("checkpoint_path", "state/checkpoints.json")
	v.SetDefault("metadata_path", "metadata")

	for _, key := range []string{
		"raw_data_path", "processed_data_path", "transformed_data_path",
		"quarantine_data_path", "analytics_data_path", "sensor_config_path",
		"checkpoint_path", "metadata_path",
	} {
		if err := v.BindEnv(key); err != nil {
			return Paths{}, errors.WrapError(err, errors.ErrorTypeConfiguration, errors.CodeConfigUnparseable, "failed to bind environment")
		}
	}
	v.AutomaticEnv()

	var paths Paths
	if err := v.Unmarshal(&paths); err != nil {
		return Paths{}, errors.WrapError(err, errors.ErrorTypeConfiguration, errors.CodeConfigUnparseable, "failed to unmarshal path configuration")
	}
	return paths, nil
}

// Calibration is the affine correction applied to one reading type.
type Calibration struct {
	Multiplier float64 `json:"multiplier"`
	Offset     float64 `json:"offset"`
}

// SensorThreshold is the configured envelope and calibration for one reading type.
type SensorThreshold struct {
	Min         float64     `json:"min"`
	Max         float64     `json:"max"`
	Calibration Calibration `json:"calibration"`
}

// SensorConfig maps reading_type to its configured thresholds. Loaded once
// per run and read-only thereafter.
type SensorConfig map[string]SensorThreshold

// Lookup returns the threshold entry for readingType and whether it is
// configured. Unknown types get the neutral default: an unbounded range and
// an identity calibration.
func (c SensorConfig) Lookup(readingType string) (SensorThreshold, bool) {
	if t, ok := c[readingType]; ok {
		return t, true
	}
	return SensorThreshold{
		Min:         math.Inf(-1),
		Max:         math.Inf(1),
		Calibration: Calibration{Multiplier: 1, Offset: 0},
	}, false
}

// LoadSensorConfig reads and decodes sensor_config.json. A missing or
// unparseable file is fatal for the run.
func LoadSensorConfig(path string) (SensorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeConfiguration, errors.CodeConfigNotFound,
			fmt.Sprintf("sensor config not readable: %s", path))
	}

	var cfg SensorConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeConfiguration, errors.CodeConfigUnparseable,
			fmt.Sprintf("sensor config not parseable: %s", path))
	}
	return cfg, nil
}

package transform

import (
	"github.com/sirupsen/logrus"

	"github.com/inferloop/agripipe/internal/config"
	"github.com/inferloop/agripipe/pkg/models"
)

// Calibrator applies the per-reading-type affine correction from the sensor
// config. Reading types without a config entry pass through unchanged.
type Calibrator struct {
	sensors config.SensorConfig
	logger  *logrus.Logger
}

// NewCalibrator creates a calibrator over the loaded sensor config.
func NewCalibrator(sensors config.SensorConfig, logger *logrus.Logger) *Calibrator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Calibrator{sensors: sensors, logger: logger}
}

// Apply rewrites value in place as value*multiplier + offset for every row
// whose reading_type is configured.
func (c *Calibrator) Apply(rows []models.Reading) {
	applied := make(map[string]int)
	for i := range rows {
		if rows[i].ReadingType == nil || rows[i].Value == nil {
			continue
		}
		threshold, ok := c.sensors.Lookup(*rows[i].ReadingType)
		if !ok {
			continue
		}
		cal := threshold.Calibration
		rows[i].Value = models.Float64Ptr(*rows[i].Value*cal.Multiplier + cal.Offset)
		applied[*rows[i].ReadingType]++
	}

	for readingType, count := range applied {
		cal := c.sensors[readingType].Calibration
		c.logger.WithFields(logrus.Fields{
			"reading_type": readingType,
			"rows":         count,
			"multiplier":   cal.Multiplier,
			"offset":       cal.Offset,
		}).Info("Applied calibration")
	}
}

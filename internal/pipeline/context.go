package pipeline

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/agripipe/internal/config"
)

// Context carries everything a stage needs: the resolved directory layout,
// the immutable sensor config, and a logger stamped with the run identity.
// It is built once per command invocation; there are no package-level
// singletons.
type Context struct {
	Paths   config.Paths
	Sensors config.SensorConfig
	Logger  *logrus.Logger
	RunID   string
}

// NewContext resolves paths from the environment and loads the sensor
// config. Set requireSensors false for stages that never consult the
// config (ingestion, loading).
func NewContext(logger *logrus.Logger, requireSensors bool) (*Context, error) {
	if logger == nil {
		logger = logrus.New()
	}

	paths, err := config.LoadPaths()
	if err != nil {
		return nil, err
	}

	var sensors config.SensorConfig
	if requireSensors {
		sensors, err = config.LoadSensorConfig(paths.SensorConfig)
		if err != nil {
			return nil, err
		}
	}

	ctx := &Context{
		Paths:   paths,
		Sensors: sensors,
		Logger:  logger,
		RunID:   uuid.New().String(),
	}
	logger.WithFields(logrus.Fields{
		"run_id":  ctx.RunID,
		"raw":     paths.RawDir,
		"sensors": len(sensors),
	}).Debug("Pipeline context initialized")
	return ctx, nil
}

package transform

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/agripipe/pkg/models"
)

func TestCalibrationAppliesAffineMap(t *testing.T) {
	calibrator := NewCalibrator(testSensors(), logrus.New())

	rows := []models.Reading{
		row("s1", "2025-06-05T10:00:00", "temperature", 25.0, 90.0),
	}
	calibrator.Apply(rows)

	// 25.0 * 1.02 + 0.5 == 26.0 exactly; the result must be bit-stable.
	assert.Equal(t, 26.0, *rows[0].Value)
}

func TestCalibrationUnknownTypePassesThrough(t *testing.T) {
	calibrator := NewCalibrator(testSensors(), logrus.New())

	rows := []models.Reading{
		row("s1", "2025-06-05T10:00:00", "wind_speed", 12.5, 90.0),
	}
	calibrator.Apply(rows)

	assert.Equal(t, 12.5, *rows[0].Value)
}

func TestCalibrationSkipsNullValues(t *testing.T) {
	calibrator := NewCalibrator(testSensors(), logrus.New())

	r := row("s1", "2025-06-05T10:00:00", "temperature", 0, 90.0)
	r.Value = nil
	rows := []models.Reading{r}
	calibrator.Apply(rows)

	assert.Nil(t, rows[0].Value)
}

func TestCalibrationAppliesPerTypeParameters(t *testing.T) {
	calibrator := NewCalibrator(testSensors(), logrus.New())

	rows := []models.Reading{
		row("s1", "2025-06-05T10:00:00", "temperature", 25.0, 90.0),
		row("s2", "2025-06-05T11:00:00", "humidity", 100.0, 85.0),
	}
	calibrator.Apply(rows)

	require.Len(t, rows, 2)
	assert.Equal(t, 26.0, *rows[0].Value)
	assert.InDelta(t, 98.3, *rows[1].Value, 1e-9)
}

package transform

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/agripipe/internal/utils/timeutil"
	"github.com/inferloop/agripipe/pkg/models"
)

const istOffset = 5*time.Hour + 30*time.Minute

// TimestampProcessor canonicalizes timestamps to YYYY-MM-DDTHH:MM:SS UTC and
// derives the IST-local column. Rows whose timestamp cannot be parsed are
// dropped, not failed.
type TimestampProcessor struct {
	logger *logrus.Logger
}

// NewTimestampProcessor creates a timestamp processor.
func NewTimestampProcessor(logger *logrus.Logger) *TimestampProcessor {
	if logger == nil {
		logger = logrus.New()
	}
	return &TimestampProcessor{logger: logger}
}

// Process converts cleaned readings into enriched rows with canonical
// timestamp strings. The returned count is the number of rows dropped for
// unparseable timestamps.
func (p *TimestampProcessor) Process(rows []models.Reading) ([]models.EnrichedReading, int) {
	out := make([]models.EnrichedReading, 0, len(rows))
	dropped := 0

	for _, row := range rows {
		if row.Timestamp == nil {
			dropped++
			continue
		}
		ts, err := timeutil.Parse(*row.Timestamp)
		if err != nil {
			dropped++
			continue
		}

		out = append(out, models.EnrichedReading{
			SensorID:     row.SensorID,
			Timestamp:    models.StrPtr(timeutil.Format(ts)),
			ReadingType:  row.ReadingType,
			Value:        row.Value,
			BatteryLevel: row.BatteryLevel,
			TimestampIST: models.StrPtr(timeutil.Format(ts.Add(istOffset))),
		})
	}

	if dropped > 0 {
		p.logger.WithField("dropped", dropped).Warn("Dropped rows with invalid timestamps")
	}
	p.logger.WithField("rows", len(out)).Info("Normalized timestamps")
	return out, dropped
}

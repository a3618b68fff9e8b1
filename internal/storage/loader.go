package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/agripipe/internal/config"
	"github.com/inferloop/agripipe/internal/observability/metrics"
	"github.com/inferloop/agripipe/internal/utils/timeutil"
	"github.com/inferloop/agripipe/pkg/models"
)

// Loader appends transformed files to the partitioned analytics dataset,
// laid out as date=YYYY-MM-DD/sensor_id=<id>/part-<n>.parquet. Partitions
// are append-only: re-loading the same day adds new part files, it never
// rewrites existing ones.
type Loader struct {
	paths  config.Paths
	logger *logrus.Logger
}

// NewLoader creates a loader for the configured analytics root.
func NewLoader(paths config.Paths, logger *logrus.Logger) *Loader {
	if logger == nil {
		logger = logrus.New()
	}
	return &Loader{paths: paths, logger: logger}
}

// Run loads every *_transformed.parquet file under the transformed
// directory into the analytics dataset. File-level failures are logged and
// skipped; the stage keeps going.
func (l *Loader) Run() error {
	pattern := filepath.Join(l.paths.TransformedDir, "*_transformed.parquet")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	sort.Strings(files)

	if len(files) == 0 {
		l.logger.Warn("No transformed files found, nothing to load")
		return nil
	}

	for _, file := range files {
		if err := l.loadFile(file); err != nil {
			l.logger.WithError(err).WithField("file", filepath.Base(file)).Error("Failed to load file")
			continue
		}
	}
	return nil
}

func (l *Loader) loadFile(path string) error {
	base := filepath.Base(path)

	cols, err := InspectColumns(path)
	if err != nil {
		return err
	}
	hasTimestamp := false
	for _, c := range cols {
		if c == "timestamp" {
			hasTimestamp = true
			break
		}
	}
	if !hasTimestamp {
		l.logger.WithField("file", base).Warn("Missing timestamp column, partitioning under date=unknown")
	}

	rows, err := ReadEnriched(path)
	if err != nil {
		return err
	}

	// Partition rows by (date, sensor_id). Date comes from the derived
	// column when present, otherwise from the timestamp, otherwise the
	// literal "unknown".
	type partitionKey struct {
		date     string
		sensorID string
	}
	partitions := make(map[partitionKey][]models.EnrichedReading)
	var order []partitionKey

	for _, row := range rows {
		key := partitionKey{date: "unknown", sensorID: "unknown"}
		if hasTimestamp {
			switch {
			case row.Date != nil && *row.Date != "":
				key.date = *row.Date
			case row.Timestamp != nil:
				if ts, err := timeutil.Parse(*row.Timestamp); err == nil {
					key.date = timeutil.FormatDate(ts)
				}
			}
		}
		if row.SensorID != nil && *row.SensorID != "" {
			key.sensorID = *row.SensorID
		}
		if row.Date == nil || *row.Date != key.date {
			row.Date = models.StrPtr(key.date)
		}
		if _, seen := partitions[key]; !seen {
			order = append(order, key)
		}
		partitions[key] = append(partitions[key], row)
	}

	for _, key := range order {
		dir := filepath.Join(l.paths.AnalyticsDir,
			"date="+key.date, "sensor_id="+key.sensorID)
		seq, err := nextPartSequence(dir)
		if err != nil {
			return err
		}
		out := filepath.Join(dir, fmt.Sprintf("part-%d.parquet", seq))
		if err := WriteEnriched(out, partitions[key]); err != nil {
			return err
		}
		metrics.PartitionsWritten.Inc()
		l.logger.WithFields(logrus.Fields{
			"file":      base,
			"partition": fmt.Sprintf("date=%s/sensor_id=%s", key.date, key.sensorID),
			"rows":      len(partitions[key]),
			"part":      seq,
		}).Info("Wrote partition row group")
	}

	metrics.FilesLoaded.Inc()
	l.logger.WithFields(logrus.Fields{
		"file":       base,
		"rows":       len(rows),
		"partitions": len(order),
	}).Info("Loaded transformed file into analytics dataset")
	return nil
}

// nextPartSequence picks the first sequence number that does not collide
// with an existing part file in the partition directory.
func nextPartSequence(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	max := -1
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "part-") || !strings.HasSuffix(name, ".parquet") {
			continue
		}
		numeric := strings.TrimSuffix(strings.TrimPrefix(name, "part-"), ".parquet")
		n, err := strconv.Atoi(numeric)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1, nil
}

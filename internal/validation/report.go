package validation

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/inferloop/agripipe/pkg/errors"
	"github.com/inferloop/agripipe/pkg/models"
)

var reportColumns = []string{
	"file_name", "total_records", "invalid_value_type", "invalid_timestamp",
	"outlier_%", "missing_%", "sensors_with_gaps", "total_missing_hours", "error",
}

// WriteReport writes the consolidated quality report atomically: the CSV is
// assembled in a temp file next to the target and renamed into place.
func WriteReport(path string, reports []models.QualityReport) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("failed to create metadata directory: %s", dir))
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".report-%s.tmp", uuid.New().String()))
	f, err := os.Create(tmp)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("failed to create temp report: %s", tmp))
	}

	w := csv.NewWriter(f)
	if err := w.Write(reportColumns); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	for _, r := range reports {
		record := []string{
			r.FileName,
			strconv.Itoa(r.TotalRecords),
			strconv.Itoa(r.InvalidValueType),
			strconv.Itoa(r.InvalidTimestamp),
			r.OutlierPct,
			r.MissingPct,
			strconv.Itoa(r.SensorsWithGaps),
			strconv.Itoa(r.TotalMissingHours),
			r.Error,
		}
		if err := w.Write(record); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("failed to rename report into place: %s", path))
	}
	return nil
}

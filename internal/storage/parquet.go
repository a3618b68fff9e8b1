package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/inferloop/agripipe/pkg/errors"
	"github.com/inferloop/agripipe/pkg/models"
)

// ReadReadings loads every row of a raw or processed parquet file.
func ReadReadings(path string) ([]models.Reading, error) {
	rows, err := parquet.ReadFile[models.Reading](path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed,
			fmt.Sprintf("failed to read parquet file: %s", path))
	}
	return rows, nil
}

// ReadEnriched loads every row of a transformed parquet file.
func ReadEnriched(path string) ([]models.EnrichedReading, error) {
	rows, err := parquet.ReadFile[models.EnrichedReading](path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed,
			fmt.Sprintf("failed to read parquet file: %s", path))
	}
	return rows, nil
}

// WriteReadings writes rows as a Snappy-compressed parquet file. The write
// goes to a temp path in the destination directory and is renamed into
// place, so an interrupted run never leaves a half-written file behind.
func WriteReadings(path string, rows []models.Reading) error {
	return writeParquet(path, rows)
}

// WriteEnriched writes transformed rows the same way as WriteReadings.
func WriteEnriched(path string, rows []models.EnrichedReading) error {
	return writeParquet(path, rows)
}

func writeParquet[T any](path string, rows []T) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("failed to create directory: %s", dir))
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".tmp-%s.parquet", uuid.New().String()))
	f, err := os.Create(tmp)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("failed to create temp file: %s", tmp))
	}

	w := parquet.NewGenericWriter[T](f, parquet.Compression(&parquet.Snappy))
	if _, err := w.Write(rows); err != nil {
		w.Close()
		f.Close()
		os.Remove(tmp)
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("failed to write rows: %s", path))
	}
	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("failed to finalize parquet file: %s", path))
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("failed to close temp file: %s", tmp))
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("failed to rename into place: %s", path))
	}
	return nil
}

// InspectColumns returns the column names of a parquet file, reading only
// the footer metadata, never the row groups.
func InspectColumns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeSchema, errors.CodeFooterUnreadable,
			fmt.Sprintf("failed to open file: %s", path))
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeSchema, errors.CodeFooterUnreadable,
			fmt.Sprintf("failed to stat file: %s", path))
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeSchema, errors.CodeFooterUnreadable,
			fmt.Sprintf("failed to read parquet footer: %s", path))
	}

	fields := pf.Schema().Fields()
	cols := make([]string, 0, len(fields))
	for _, field := range fields {
		cols = append(cols, field.Name())
	}
	return cols, nil
}

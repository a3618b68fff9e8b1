package ingestion

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/inferloop/agripipe/pkg/errors"
	"github.com/inferloop/agripipe/pkg/models"
)

var ingestLogColumns = []string{"filename", "rows", "status", "error", "duration_sec", "timestamp"}

// IngestLog appends one CSV row per attempted ingestion. Each append opens,
// writes, syncs and closes the file so a crash loses at most the row being
// written.
type IngestLog struct {
	path string
	mu   sync.Mutex
}

// NewIngestLog creates an append-only log at path.
func NewIngestLog(path string) *IngestLog {
	return &IngestLog{path: path}
}

// Append records one ingestion attempt.
func (l *IngestLog) Append(entry models.IngestionLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("failed to create metadata directory: %s", filepath.Dir(l.path)))
	}

	_, statErr := os.Stat(l.path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("failed to open ingest log: %s", l.path))
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(ingestLogColumns); err != nil {
			return err
		}
	}
	record := []string{
		entry.Filename,
		strconv.Itoa(entry.Rows),
		entry.Status,
		entry.Error,
		strconv.FormatFloat(entry.DurationSec, 'f', 2, 64),
		entry.Timestamp,
	}
	if err := w.Write(record); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}

package ingestion

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/inferloop/agripipe/pkg/models"
)

// Scanner discovers raw parquet files that have not yet reached a successful
// terminal state in the checkpoint store.
type Scanner struct {
	rawDir      string
	checkpoints *CheckpointStore
}

// NewScanner creates a scanner over rawDir.
func NewScanner(rawDir string, checkpoints *CheckpointStore) *Scanner {
	return &Scanner{rawDir: rawDir, checkpoints: checkpoints}
}

// ListNewFiles returns absolute paths of every parquet file in the raw
// directory whose basename is not checkpointed with status success, sorted
// lexicographically. A missing raw directory yields an empty result.
func (s *Scanner) ListNewFiles() ([]string, error) {
	if _, err := os.Stat(s.rawDir); os.IsNotExist(err) {
		return nil, nil
	}

	matches, err := filepath.Glob(filepath.Join(s.rawDir, "*.parquet"))
	if err != nil {
		return nil, err
	}

	state := s.checkpoints.Load()
	var files []string
	for _, path := range matches {
		record, ok := state.ProcessedFiles[filepath.Base(path)]
		if ok && record.Status == models.StatusSuccess {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		files = append(files, abs)
	}

	sort.Strings(files)
	return files, nil
}

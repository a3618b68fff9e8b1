package ingestion

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/agripipe/pkg/errors"
	"github.com/inferloop/agripipe/pkg/models"
)

// CheckpointStore persists the terminal outcome of every input file as a
// single JSON document. Writes go through a temp file in the same directory
// and a rename, so a crash mid-write leaves the previous state intact.
type CheckpointStore struct {
	path   string
	logger *logrus.Logger
	mu     sync.Mutex
}

// NewCheckpointStore creates a store backed by the given JSON file.
func NewCheckpointStore(path string, logger *logrus.Logger) *CheckpointStore {
	if logger == nil {
		logger = logrus.New()
	}
	return &CheckpointStore{path: path, logger: logger}
}

// Load reads the current checkpoint state. A missing file is an empty state;
// an unparseable file is logged and treated as empty.
func (s *CheckpointStore) Load() models.CheckpointState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *CheckpointStore) loadLocked() models.CheckpointState {
	empty := models.CheckpointState{ProcessedFiles: make(map[string]models.CheckpointRecord)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).WithField("path", s.path).Warn("Failed to read checkpoint file, treating as empty")
		}
		return empty
	}

	var state models.CheckpointState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("Checkpoint file not parseable, treating as empty")
		return empty
	}
	if state.ProcessedFiles == nil {
		state.ProcessedFiles = make(map[string]models.CheckpointRecord)
	}
	return state
}

// Record sets the terminal outcome for one file and persists atomically.
func (s *CheckpointStore) Record(filename string, record models.CheckpointRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.loadLocked()
	state.ProcessedFiles[filename] = record
	return s.saveLocked(state)
}

func (s *CheckpointStore) saveLocked(state models.CheckpointState) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("failed to create state directory: %s", dir))
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to encode checkpoint state")
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".checkpoints-%s.tmp", uuid.New().String()))
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("failed to write temp checkpoint: %s", tmp))
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("failed to rename checkpoint into place: %s", s.path))
	}
	return nil
}

// Succeeded reports whether filename already reached status success.
func (s *CheckpointStore) Succeeded(filename string) bool {
	state := s.Load()
	record, ok := state.ProcessedFiles[filename]
	return ok && record.Status == models.StatusSuccess
}

package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/agripipe/pkg/models"
)

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "checkpoints.json")
	store := NewCheckpointStore(path, logrus.New())

	require.NoError(t, store.Record("day1.parquet", models.CheckpointRecord{
		Checksum:    "abc123",
		Rows:        42,
		Status:      models.StatusSuccess,
		ProcessedAt: "2025-06-05T12:00:00Z",
	}))

	state := store.Load()
	require.Contains(t, state.ProcessedFiles, "day1.parquet")
	record := state.ProcessedFiles["day1.parquet"]
	assert.Equal(t, "abc123", record.Checksum)
	assert.Equal(t, 42, record.Rows)
	assert.Equal(t, models.StatusSuccess, record.Status)

	assert.True(t, store.Succeeded("day1.parquet"))
	assert.False(t, store.Succeeded("day2.parquet"))
}

func TestCheckpointMissingFileIsEmptyState(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "checkpoints.json"), logrus.New())

	state := store.Load()
	assert.Empty(t, state.ProcessedFiles)
}

func TestCheckpointUnparseableFileIsEmptyState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	store := NewCheckpointStore(path, logrus.New())
	state := store.Load()
	assert.Empty(t, state.ProcessedFiles)
}

func TestCheckpointRecordPreservesOtherEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.json")
	store := NewCheckpointStore(path, logrus.New())

	require.NoError(t, store.Record("day1.parquet", models.CheckpointRecord{Status: models.StatusSuccess}))
	require.NoError(t, store.Record("day2.parquet", models.CheckpointRecord{Status: models.StatusQuarantined}))

	state := store.Load()
	assert.Len(t, state.ProcessedFiles, 2)
	assert.Equal(t, models.StatusSuccess, state.ProcessedFiles["day1.parquet"].Status)
	assert.Equal(t, models.StatusQuarantined, state.ProcessedFiles["day2.parquet"].Status)
}

func TestCheckpointWriteIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoints.json")
	store := NewCheckpointStore(path, logrus.New())

	require.NoError(t, store.Record("day1.parquet", models.CheckpointRecord{Status: models.StatusSuccess}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "checkpoints.json", entries[0].Name())
}

package ml

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fittedBundle(t *testing.T) *Bundle {
	t.Helper()

	rows := [][]string{
		{"metal", "Ferrous Metals", "Iron"},
		{"metal", "Non-Ferrous Metals", "Copper"},
		{"glass", "Container Glass", "Bottles"},
		{"paper", "Mixed & Office Paper", "Old Newspaper (ONP)"},
	}
	y := []float64{25.5, 720, 8, 12}

	encoder, forest, err := fitPipeline(rows, y, 30, 42)
	require.NoError(t, err)

	return &Bundle{
		ID:            "test-bundle",
		SchemaVersion: SchemaThreeColumn,
		Encoder:       encoder,
		Forest:        forest,
		TrainedAt:     time.Now().UTC(),
		TrainingRows:  len(rows),
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model", "scrap_rf.gob")
	bundle := fittedBundle(t)
	require.NoError(t, Save(bundle, path))

	// The temp file must not survive a successful save.
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, bundle.ID, loaded.ID)
	assert.Equal(t, SchemaThreeColumn, loaded.SchemaVersion)

	row := []string{"metal", "Non-Ferrous Metals", "Copper"}
	want, err := bundle.PredictRow(row)
	require.NoError(t, err)
	got, err := loaded.PredictRow(row)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveWritesMetadataSidecar(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scrap_rf.gob")
	bundle := fittedBundle(t)
	bundle.HoldoutMAE = 12.5
	require.NoError(t, Save(bundle, path))

	meta, err := ReadMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, bundle.ID, meta.ID)
	assert.Equal(t, SchemaThreeColumn, meta.SchemaVersion)
	assert.Equal(t, 12.5, meta.HoldoutMAE)
	assert.Equal(t, 4, meta.TrainingRows)
}

func TestLoadMissingArtifact(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.gob"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadCorruptArtifact(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scrap_rf.gob")
	require.NoError(t, os.WriteFile(path, []byte("not a gob stream"), 0o600))

	_, err := Load(path)
	require.Error(t, err)

	var corrupt *CorruptArtifactError
	require.True(t, errors.As(err, &corrupt))
	assert.Equal(t, path, corrupt.Path)
}

// A crash between writing the temp file and the rename must leave the final
// artifact untouched: either the old complete content or the new one.
func TestSaveIsAtomic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scrap_rf.gob")
	bundle := fittedBundle(t)
	require.NoError(t, Save(bundle, path))

	// Simulate a writer that died mid-write: a half-written temp file
	// sitting beside the artifact.
	require.NoError(t, os.WriteFile(path+".tmp", []byte("partial"), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err, "final path still holds the previous complete artifact")
	assert.Equal(t, bundle.ID, loaded.ID)
}

package ml

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrap-pricer/internal/dataset"
)

func TestTrainAndSaveProducesLoadableBundle(t *testing.T) {
	t.Parallel()

	trainer := &Trainer{
		Loader:    dataset.NewLoader(nil, nil, nil),
		ModelPath: filepath.Join(t.TempDir(), "scrap_rf.gob"),
		Trees:     60,
		Seed:      42,
		Holdout:   0.2,
	}

	bundle, err := trainer.TrainAndSave(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, bundle.ID)
	assert.Equal(t, SchemaThreeColumn, bundle.SchemaVersion)
	assert.Equal(t, 7, bundle.TrainingRows)

	loaded, err := Load(trainer.ModelPath)
	require.NoError(t, err)

	// Predicting a training-set category returns a finite, non-negative price.
	price, err := loaded.PredictRow([]string{"e-waste", "Computing Devices", "Laptop - Basic Laptop"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, price, 0.0)
	assert.Greater(t, price, 100.0, "laptops are the most expensive seed category")
}

func TestTrainAndSaveReproducible(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	row := []string{"glass", "Container Glass", "Bottles"}

	var prices []float64
	for _, name := range []string{"a.gob", "b.gob"} {
		trainer := &Trainer{
			Loader:    dataset.NewLoader(nil, nil, nil),
			ModelPath: filepath.Join(dir, name),
			Trees:     40,
			Seed:      42,
			Holdout:   0.2,
		}
		bundle, err := trainer.TrainAndSave(context.Background())
		require.NoError(t, err)

		price, err := bundle.PredictRow(row)
		require.NoError(t, err)
		prices = append(prices, price)
	}
	assert.Equal(t, prices[0], prices[1], "same seed, same data, same prediction")
}

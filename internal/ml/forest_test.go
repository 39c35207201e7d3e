package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForestConstantTarget(t *testing.T) {
	t.Parallel()

	x := [][]float64{{1, 0}, {0, 1}, {1, 1}, {0, 0}}
	y := []float64{42, 42, 42, 42}

	f := TrainForest(x, y, 25, 1)
	for _, row := range x {
		pred, err := f.Predict(row)
		require.NoError(t, err)
		assert.InDelta(t, 42, pred, 1e-9)
	}
}

func TestForestSeparatesDistinctGroups(t *testing.T) {
	t.Parallel()

	// Two well-separated groups keyed on the first feature.
	var x [][]float64
	var y []float64
	for i := 0; i < 20; i++ {
		x = append(x, []float64{1, 0})
		y = append(y, 10)
		x = append(x, []float64{0, 1})
		y = append(y, 1000)
	}

	f := TrainForest(x, y, 50, 7)

	low, err := f.Predict([]float64{1, 0})
	require.NoError(t, err)
	high, err := f.Predict([]float64{0, 1})
	require.NoError(t, err)

	assert.InDelta(t, 10, low, 1)
	assert.InDelta(t, 1000, high, 1)
}

func TestForestReproducibleUnderFixedSeed(t *testing.T) {
	t.Parallel()

	x := [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 0}, {0, 1, 1}}
	y := []float64{8, 25.5, 145, 500, 1500}

	a := TrainForest(x, y, 40, 42)
	b := TrainForest(x, y, 40, 42)

	for _, row := range x {
		pa, err := a.Predict(row)
		require.NoError(t, err)
		pb, err := b.Predict(row)
		require.NoError(t, err)
		assert.Equal(t, pa, pb)
	}
}

func TestForestPredictErrors(t *testing.T) {
	t.Parallel()

	f := &Forest{}
	_, err := f.Predict([]float64{1})
	assert.Error(t, err, "empty forest")
}

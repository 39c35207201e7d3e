package eval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrap-pricer/internal/dataset"
	"scrap-pricer/internal/ml"
)

func trainSeedModel(t *testing.T) (loader *dataset.Loader, modelPath string) {
	t.Helper()

	loader = dataset.NewLoader(nil, nil, nil)
	modelPath = filepath.Join(t.TempDir(), "scrap_rf.gob")
	trainer := &ml.Trainer{
		Loader:    loader,
		ModelPath: modelPath,
		Trees:     60,
		Seed:      42,
		Holdout:   0.2,
	}
	_, err := trainer.TrainAndSave(context.Background())
	require.NoError(t, err)
	return loader, modelPath
}

func TestBinEdgesCoverEverySeedPrice(t *testing.T) {
	t.Parallel()

	prices := []float64{8, 12, 25.5, 145, 500, 720, 1500}
	edges := binEdges(prices, 4)

	require.GreaterOrEqual(t, len(edges), 2)
	for i := 1; i < len(edges); i++ {
		assert.Greater(t, edges[i], edges[i-1], "edges strictly increasing")
	}
	assert.Equal(t, 8.0, edges[0])
	assert.Equal(t, 1500.0, edges[len(edges)-1])

	// Every value lands in exactly one bucket.
	counts := make([]int, len(edges)-1)
	for _, p := range prices {
		b := bucketOf(p, edges)
		require.GreaterOrEqual(t, b, 0)
		require.Less(t, b, len(counts))
		counts[b]++
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, len(prices), total)
}

func TestBinEdgesCollapseDuplicates(t *testing.T) {
	t.Parallel()

	// Heavy ties: most quantiles coincide.
	prices := []float64{5, 5, 5, 5, 5, 5, 100}
	edges := binEdges(prices, 4)

	for i := 1; i < len(edges); i++ {
		assert.Greater(t, edges[i], edges[i-1])
	}
	assert.GreaterOrEqual(t, len(edges), 2, "two distinct values still give one usable bucket boundary")
}

func TestBucketOfClampsOutOfRange(t *testing.T) {
	t.Parallel()

	edges := []float64{10, 20, 30}
	assert.Equal(t, 0, bucketOf(5, edges), "below range clamps to first bucket")
	assert.Equal(t, 0, bucketOf(10, edges), "lowest edge included")
	assert.Equal(t, 1, bucketOf(25, edges))
	assert.Equal(t, 1, bucketOf(99, edges), "above range clamps to last bucket")
}

func TestRunInsufficientData(t *testing.T) {
	t.Parallel()

	snap, err := dataset.NewSnapshot(t.TempDir())
	require.NoError(t, err)
	defer snap.Close()

	// A snapshot with a single distinct price feeds the loader.
	require.NoError(t, snap.Save([]dataset.Record{
		{ScrapType: "glass", SubCategory: "Container Glass", SubSubCategory: "Bottles", BasePrice: 8},
		{ScrapType: "glass", SubCategory: "Container Glass", SubSubCategory: "Jars", BasePrice: 8},
	}))
	loader := dataset.NewLoader(nil, snap, nil)

	_, err = Run(context.Background(), loader, filepath.Join(t.TempDir(), "never-written.gob"), 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestRunFailsWithoutArtifact(t *testing.T) {
	t.Parallel()

	loader := dataset.NewLoader(nil, nil, nil)
	_, err := Run(context.Background(), loader, filepath.Join(t.TempDir(), "absent.gob"), 4)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInsufficientData))
}

func TestRunAgainstSeedModel(t *testing.T) {
	t.Parallel()

	loader, modelPath := trainSeedModel(t)
	res, err := Run(context.Background(), loader, modelPath, 4)
	require.NoError(t, err)

	assert.Equal(t, 7, res.Rows)
	require.NotEmpty(t, res.Labels)
	require.Len(t, res.Matrix, len(res.Labels))

	// Row sums equal per-bucket support and everything is counted.
	total := 0
	for i, row := range res.Matrix {
		rowSum := 0
		for _, n := range row {
			rowSum += n
		}
		assert.Equal(t, res.PerLabel[i].Support, rowSum)
		total += rowSum
	}
	assert.Equal(t, 7, total)
	assert.GreaterOrEqual(t, res.Accuracy, 0.0)
	assert.LessOrEqual(t, res.Accuracy, 1.0)
}

func TestWriteReports(t *testing.T) {
	t.Parallel()

	loader, modelPath := trainSeedModel(t)
	res, err := Run(context.Background(), loader, modelPath, 4)
	require.NoError(t, err)

	outDir := filepath.Join(t.TempDir(), "reports")
	require.NoError(t, WriteReports(res, outDir))

	csvData, err := os.ReadFile(filepath.Join(outDir, "confusion_matrix.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(csvData), "Q1")

	report, err := os.ReadFile(filepath.Join(outDir, "evaluation_report.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "CONFUSION MATRIX")
	assert.Contains(t, string(report), "Accuracy:")
}

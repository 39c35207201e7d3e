// Package eval is the offline evaluation harness. It buckets continuous
// prices into quantile classes and reports classification-style metrics over
// the buckets as a proxy for regression quality. It reads the persisted
// artifact and never touches serving state.
package eval

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"scrap-pricer/internal/dataset"
	"scrap-pricer/internal/ml"
)

// ErrInsufficientData means the dataset has fewer than two distinct price
// values, so no quantile buckets can be built.
var ErrInsufficientData = errors.New("need at least two distinct price values to build buckets")

// LabelStats holds per-bucket classification metrics.
type LabelStats struct {
	Label     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Result is the outcome of one evaluation run.
type Result struct {
	Labels   []string
	Edges    []float64 // quantile bin edges derived from the true prices
	Matrix   [][]int   // rows = actual bucket, cols = predicted bucket
	Accuracy float64
	PerLabel []LabelStats
	Rows     int
}

// Run loads the dataset and the persisted bundle, predicts every row, and
// builds the bucketed confusion matrix. A missing artifact is a hard error;
// unlike the serving path this never trains. Insufficient data fails before
// any prediction work happens.
func Run(ctx context.Context, loader *dataset.Loader, modelPath string, buckets int) (*Result, error) {
	records := loader.Fetch(ctx)

	truths := make([]float64, len(records))
	distinct := make(map[float64]struct{}, len(records))
	for i, rec := range records {
		truths[i] = rec.BasePrice
		distinct[rec.BasePrice] = struct{}{}
	}
	if len(distinct) < 2 {
		return nil, fmt.Errorf("%w: dataset has %d distinct price(s)", ErrInsufficientData, len(distinct))
	}

	bundle, err := ml.Load(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model artifact (run training first): %w", err)
	}

	preds := make([]float64, len(records))
	for i, rec := range records {
		pred, err := bundle.PredictRow(evalRow(bundle.SchemaVersion, rec))
		if err != nil {
			return nil, fmt.Errorf("predict row %d: %w", i, err)
		}
		preds[i] = pred
	}

	if buckets > len(distinct) {
		buckets = len(distinct)
	}
	edges := binEdges(truths, buckets)

	k := len(edges) - 1
	labels := make([]string, k)
	for i := range labels {
		labels[i] = fmt.Sprintf("Q%d", i+1)
	}

	matrix := make([][]int, k)
	for i := range matrix {
		matrix[i] = make([]int, k)
	}
	// Predictions are bucketed with the truth-derived edges so the two
	// labelings are comparable; out-of-range predictions clamp to the
	// nearest edge bucket instead of dropping out of the matrix.
	for i := range truths {
		matrix[bucketOf(truths[i], edges)][bucketOf(preds[i], edges)]++
	}

	res := &Result{
		Labels: labels,
		Edges:  edges,
		Matrix: matrix,
		Rows:   len(records),
	}
	res.score()
	return res, nil
}

func evalRow(schema int, rec dataset.Record) []string {
	if schema == ml.SchemaTwoColumn {
		leaf := rec.SubSubCategory
		if leaf == "" {
			leaf = rec.SubCategory
		}
		return []string{rec.ScrapType, leaf}
	}
	return []string{rec.ScrapType, rec.SubCategory, rec.SubSubCategory}
}

// binEdges derives q+1 quantile edges from the values, collapsing duplicate
// edges. The returned edges are strictly increasing and span the full value
// range, so every value falls into exactly one bucket.
func binEdges(values []float64, q int) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	edges := make([]float64, 0, q+1)
	for i := 0; i <= q; i++ {
		e := stat.Quantile(float64(i)/float64(q), stat.LinInterp, sorted, nil)
		if len(edges) == 0 || e > edges[len(edges)-1] {
			edges = append(edges, e)
		}
	}
	return edges
}

// bucketOf places v into a bucket: bucket i covers (edges[i], edges[i+1]],
// with the lowest edge included in the first bucket and out-of-range values
// clamped to the outermost buckets.
func bucketOf(v float64, edges []float64) int {
	last := len(edges) - 2
	for i := 1; i < len(edges); i++ {
		if v <= edges[i] {
			return i - 1
		}
	}
	return last
}

func (r *Result) score() {
	k := len(r.Labels)
	total, correct := 0, 0
	rowSums := make([]int, k)
	colSums := make([]int, k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			n := r.Matrix[i][j]
			total += n
			rowSums[i] += n
			colSums[j] += n
			if i == j {
				correct += n
			}
		}
	}

	if total > 0 {
		r.Accuracy = float64(correct) / float64(total)
	}

	r.PerLabel = make([]LabelStats, k)
	for i := 0; i < k; i++ {
		var precision, recall, f1 float64
		diag := float64(r.Matrix[i][i])
		if colSums[i] > 0 {
			precision = diag / float64(colSums[i])
		}
		if rowSums[i] > 0 {
			recall = diag / float64(rowSums[i])
		}
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		r.PerLabel[i] = LabelStats{
			Label:     r.Labels[i],
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   rowSums[i],
		}
	}
}

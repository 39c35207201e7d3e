package ml

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"scrap-pricer/internal/dataset"
)

// Trainer runs the full training cycle: fetch dataset, holdout-evaluate for
// diagnostics, refit on everything, persist atomically.
type Trainer struct {
	Loader    *dataset.Loader
	ModelPath string
	Trees     int
	Seed      int64
	Holdout   float64
}

// TrainAndSave produces a new fitted bundle and writes it to the model path.
// The holdout MAE/R² are logged for observability only; training proceeds
// regardless of their values, and the persisted bundle is always refit on
// the full dataset.
func (t *Trainer) TrainAndSave(ctx context.Context) (*Bundle, error) {
	records := t.Loader.Fetch(ctx)
	if len(records) == 0 {
		return nil, fmt.Errorf("no training data available")
	}

	rows := make([][]string, len(records))
	y := make([]float64, len(records))
	for i, rec := range records {
		rows[i] = []string{rec.ScrapType, rec.SubCategory, rec.SubSubCategory}
		y[i] = rec.BasePrice
	}

	mae, r2 := t.holdoutEvaluate(rows, y)
	log.Info().
		Float64("mae", mae).
		Float64("r2", r2).
		Int("rows", len(rows)).
		Msg("holdout evaluation complete")

	// Production fit: same configuration, fresh fit on 100% of the data.
	encoder, forest, err := fitPipeline(rows, y, t.Trees, t.Seed)
	if err != nil {
		return nil, fmt.Errorf("fit production pipeline: %w", err)
	}

	bundle := &Bundle{
		ID:            uuid.NewString(),
		SchemaVersion: SchemaThreeColumn,
		Encoder:       encoder,
		Forest:        forest,
		TrainedAt:     time.Now().UTC(),
		TrainingRows:  len(rows),
		HoldoutMAE:    mae,
		HoldoutR2:     r2,
	}

	if err := Save(bundle, t.ModelPath); err != nil {
		return nil, err
	}
	return bundle, nil
}

// holdoutEvaluate fits a throwaway pipeline on a seeded 80/20 split and
// scores the held-out rows. The learned state is discarded; only the
// diagnostics survive. Returns NaN metrics when the dataset is too small to
// split.
func (t *Trainer) holdoutEvaluate(rows [][]string, y []float64) (mae, r2 float64) {
	n := len(rows)
	nTest := int(math.Ceil(t.Holdout * float64(n)))
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		log.Warn().Int("rows", n).Msg("dataset too small for a holdout split, skipping evaluation")
		return math.NaN(), math.NaN()
	}

	rng := rand.New(rand.NewSource(t.Seed))
	perm := rng.Perm(n)
	testIdx, trainIdx := perm[:nTest], perm[nTest:]

	trainRows := make([][]string, len(trainIdx))
	trainY := make([]float64, len(trainIdx))
	for i, idx := range trainIdx {
		trainRows[i] = rows[idx]
		trainY[i] = y[idx]
	}

	encoder, forest, err := fitPipeline(trainRows, trainY, t.Trees, t.Seed)
	if err != nil {
		log.Warn().Err(err).Msg("holdout fit failed, skipping evaluation")
		return math.NaN(), math.NaN()
	}

	preds := make([]float64, len(testIdx))
	truth := make([]float64, len(testIdx))
	absErrSum := 0.0
	for i, idx := range testIdx {
		vec, err := encoder.Transform(rows[idx])
		if err != nil {
			log.Warn().Err(err).Msg("holdout transform failed, skipping evaluation")
			return math.NaN(), math.NaN()
		}
		pred, err := forest.Predict(vec)
		if err != nil {
			log.Warn().Err(err).Msg("holdout predict failed, skipping evaluation")
			return math.NaN(), math.NaN()
		}
		preds[i] = pred
		truth[i] = y[idx]
		absErrSum += math.Abs(pred - y[idx])
	}

	mae = absErrSum / float64(len(testIdx))
	r2 = stat.RSquaredFrom(preds, truth, nil)
	return mae, r2
}

// fitPipeline fits the encoder+forest composition on the given rows.
func fitPipeline(rows [][]string, y []float64, trees int, seed int64) (*Encoder, *Forest, error) {
	encoder := NewEncoder("scrap_type", "sub_category", "sub_sub_category")
	if err := encoder.Fit(rows); err != nil {
		return nil, nil, err
	}
	x, err := encoder.TransformAll(rows)
	if err != nil {
		return nil, nil, err
	}
	forest := TrainForest(x, y, trees, seed)
	return encoder, forest, nil
}

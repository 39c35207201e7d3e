package ml

import (
	"fmt"
	"time"
)

// Schema versions: how many categorical columns the bundle was trained on.
// Current training always writes the three-column schema; two-column bundles
// from older training code keep serving until their owners retrain.
const (
	SchemaTwoColumn   = 2
	SchemaThreeColumn = 3
)

// Bundle is the fitted encoder plus fitted regressor, treated as one
// immutable unit. It is created whole by a training cycle and replaced
// wholesale on retrain, never patched in place.
type Bundle struct {
	ID            string
	SchemaVersion int
	Encoder       *Encoder
	Forest        *Forest
	TrainedAt     time.Time
	TrainingRows  int
	HoldoutMAE    float64
	HoldoutR2     float64
}

// InferenceError wraps any failure inside the transform+predict step so
// callers can distinguish model trouble from request trouble. The underlying
// cause text is preserved for debugging.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("model prediction failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// PredictRow encodes one categorical row and runs it through the forest,
// returning the predicted price per kilogram. The row must have one value
// per schema column; unknown category values encode to zeros and still
// produce a finite prediction. Any failure, including a panic from
// unexpected internal state, comes back as an *InferenceError.
func (b *Bundle) PredictRow(row []string) (price float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &InferenceError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if len(row) != len(b.Encoder.Columns) {
		return 0, &InferenceError{Err: fmt.Errorf("expected %d feature columns, got %d", len(b.Encoder.Columns), len(row))}
	}

	vec, err := b.Encoder.Transform(row)
	if err != nil {
		return 0, &InferenceError{Err: err}
	}

	pred, err := b.Forest.Predict(vec)
	if err != nil {
		return 0, &InferenceError{Err: err}
	}
	return pred, nil
}

// Age returns how long ago the bundle was trained.
func (b *Bundle) Age() time.Duration {
	return time.Since(b.TrainedAt)
}

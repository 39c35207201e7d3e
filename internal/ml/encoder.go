// Package ml implements the training and prediction pipeline: a one-hot
// encoder over the categorical scrap description, a random-forest regressor
// for the price-per-kilogram target, gob persistence for the fitted bundle,
// and the process-wide manager that owns the serving model.
package ml

import (
	"fmt"
	"sort"
)

// Encoder one-hot encodes a fixed set of categorical columns. The vocabulary
// is captured at fit time and sorted per column for determinism. Values not
// seen during fitting transform to an all-zero block for that column rather
// than failing, so an unknown category degrades the signal instead of the
// request.
//
// Fields are exported for gob.
type Encoder struct {
	Columns []string         // column names, in feature order
	Vocab   []map[string]int // per column: category value -> offset within the column block
	Offsets []int            // per column: start of its block in the output vector
	Width   int              // total output dimensionality
}

// NewEncoder creates an unfitted encoder for the given columns.
func NewEncoder(columns ...string) *Encoder {
	return &Encoder{Columns: columns}
}

// Fit captures the vocabulary of each column from the given rows. Each row
// must have one value per column.
func (e *Encoder) Fit(rows [][]string) error {
	if len(rows) == 0 {
		return fmt.Errorf("cannot fit encoder on empty dataset")
	}

	e.Vocab = make([]map[string]int, len(e.Columns))
	e.Offsets = make([]int, len(e.Columns))
	e.Width = 0

	for col := range e.Columns {
		seen := make(map[string]struct{})
		for _, row := range rows {
			if len(row) != len(e.Columns) {
				return fmt.Errorf("row has %d values, encoder expects %d", len(row), len(e.Columns))
			}
			seen[row[col]] = struct{}{}
		}

		values := make([]string, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		sort.Strings(values)

		vocab := make(map[string]int, len(values))
		for i, v := range values {
			vocab[v] = i
		}

		e.Vocab[col] = vocab
		e.Offsets[col] = e.Width
		e.Width += len(values)
	}
	return nil
}

// Transform encodes one row into a feature vector. Unknown category values
// leave their column block all-zero.
func (e *Encoder) Transform(row []string) ([]float64, error) {
	if e.Vocab == nil {
		return nil, fmt.Errorf("encoder is not fitted")
	}
	if len(row) != len(e.Columns) {
		return nil, fmt.Errorf("row has %d values, encoder expects %d", len(row), len(e.Columns))
	}

	out := make([]float64, e.Width)
	for col, value := range row {
		if idx, ok := e.Vocab[col][value]; ok {
			out[e.Offsets[col]+idx] = 1
		}
	}
	return out, nil
}

// TransformAll encodes a batch of rows.
func (e *Encoder) TransformAll(rows [][]string) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		vec, err := e.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

package dataset

import "context"

// Source fetches raw price rows from a backing store. Implementations return
// an error on connectivity problems; an empty result is not an error here,
// the loader treats both the same way.
type Source interface {
	Fetch(ctx context.Context) ([]Raw, error)
	Name() string
}

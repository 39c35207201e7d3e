package dataset

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	raws []Raw
	err  error
}

func (f *fakeSource) Fetch(ctx context.Context) ([]Raw, error) { return f.raws, f.err }
func (f *fakeSource) Name() string                             { return "fake" }

type fakeMetrics struct {
	rows   float64
	source float64
}

func (f *fakeMetrics) DatasetRowsSet(n float64)   { f.rows = n }
func (f *fakeMetrics) DatasetSourceSet(v float64) { f.source = v }

func TestLoaderLiveFetch(t *testing.T) {
	t.Parallel()

	src := &fakeSource{raws: []Raw{
		{ScrapType: "Metal", SubCategory: "Ferrous Metals", SubSubCategory: "Iron", BasePrice: "25.5"},
	}}
	m := &fakeMetrics{}
	loader := NewLoader(src, nil, m)

	records := loader.Fetch(context.Background())
	require.Len(t, records, 1)
	assert.Equal(t, "metal", records[0].ScrapType)
	assert.Equal(t, float64(SourceLive), m.source)
	assert.Equal(t, 1.0, m.rows)
}

func TestLoaderFallsBackToSeed(t *testing.T) {
	t.Parallel()

	cases := map[string]*fakeSource{
		"source error": {err: errors.New("connection refused")},
		"empty result": {},
		"all dirty":    {raws: []Raw{{ScrapType: "metal", BasePrice: "x"}}},
		"no source":    nil,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			m := &fakeMetrics{}
			var loader *Loader
			if src == nil {
				loader = NewLoader(nil, nil, m)
			} else {
				loader = NewLoader(src, nil, m)
			}

			records := loader.Fetch(context.Background())
			require.Len(t, records, 7)
			assert.Equal(t, float64(SourceSeed), m.source)
		})
	}
}

func TestLoaderPrefersSnapshotOverSeed(t *testing.T) {
	t.Parallel()

	snap, err := NewSnapshot(t.TempDir())
	require.NoError(t, err)
	defer snap.Close()

	// A working source populates the snapshot.
	good := &fakeSource{raws: []Raw{
		{ScrapType: "glass", SubCategory: "Container Glass", SubSubCategory: "Bottles", BasePrice: "8"},
		{ScrapType: "paper", SubCategory: "Mixed & Office Paper", SubSubCategory: "Old Newspaper (ONP)", BasePrice: "12"},
	}}
	records := NewLoader(good, snap, nil).Fetch(context.Background())
	require.Len(t, records, 2)

	// The same snapshot serves when the source goes away.
	m := &fakeMetrics{}
	bad := &fakeSource{err: errors.New("store unreachable")}
	records = NewLoader(bad, snap, m).Fetch(context.Background())
	require.Len(t, records, 2)
	assert.Equal(t, "glass", records[0].ScrapType)
	assert.Equal(t, float64(SourceSnapshot), m.source)
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	snap, err := NewSnapshot(t.TempDir())
	require.NoError(t, err)
	defer snap.Close()

	// Empty snapshot: no records, no error.
	records, _, err := snap.Load()
	require.NoError(t, err)
	assert.Empty(t, records)

	want := SeedRecords()
	require.NoError(t, snap.Save(want))

	records, savedAt, err := snap.Load()
	require.NoError(t, err)
	assert.Equal(t, want, records)
	assert.False(t, savedAt.IsZero())
}

package dataset

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Fallback chain positions reported through MetricsSink.DatasetSourceSet.
const (
	SourceLive     = 0
	SourceSnapshot = 1
	SourceSeed     = 2
)

// MetricsSink receives dataset observability signals from the loader.
type MetricsSink interface {
	DatasetRowsSet(float64)
	DatasetSourceSet(float64)
}

// Loader produces a cleaned training dataset and never fails: a broken or
// empty backing store degrades first to the last snapshot, then to the
// embedded seed data. Every degradation is logged so operators can tell when
// predictions are being served from stale or toy data.
type Loader struct {
	source  Source
	snap    *Snapshot
	metrics MetricsSink
}

// NewLoader builds a loader. source, snap and metrics may each be nil; a
// loader with neither source nor snapshot always serves seed data.
func NewLoader(source Source, snap *Snapshot, metrics MetricsSink) *Loader {
	return &Loader{source: source, snap: snap, metrics: metrics}
}

// Fetch returns a cleaned, non-empty dataset. A successful live fetch
// refreshes the snapshot for future degraded runs.
func (l *Loader) Fetch(ctx context.Context) []Record {
	if records := l.fetchLive(ctx); len(records) > 0 {
		l.observe(records, SourceLive)
		return records
	}

	if records := l.fetchSnapshot(); len(records) > 0 {
		l.observe(records, SourceSnapshot)
		return records
	}

	records := Clean(seedRaws())
	log.Warn().Int("rows", len(records)).Msg("falling back to embedded seed dataset")
	l.observe(records, SourceSeed)
	return records
}

func (l *Loader) fetchLive(ctx context.Context) []Record {
	if l.source == nil {
		return nil
	}

	raws, err := l.source.Fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Str("source", l.source.Name()).Msg("dataset fetch failed")
		return nil
	}
	if len(raws) == 0 {
		log.Warn().Str("source", l.source.Name()).Msg("dataset fetch returned no rows")
		return nil
	}

	records := Clean(raws)
	if len(records) == 0 {
		log.Warn().Str("source", l.source.Name()).Int("raw_rows", len(raws)).
			Msg("all fetched rows dropped during cleaning")
		return nil
	}

	log.Info().Str("source", l.source.Name()).Int("rows", len(records)).Msg("dataset loaded")

	if l.snap != nil {
		if err := l.snap.Save(records); err != nil {
			log.Warn().Err(err).Msg("failed to refresh dataset snapshot")
		}
	}
	return records
}

func (l *Loader) fetchSnapshot() []Record {
	if l.snap == nil {
		return nil
	}

	records, savedAt, err := l.snap.Load()
	if err != nil {
		log.Warn().Err(err).Msg("dataset snapshot load failed")
		return nil
	}
	if len(records) == 0 {
		return nil
	}

	// Snapshots hold already-cleaned records; re-cleaning keeps the
	// invariant if the file was written by an older build.
	records = Clean(rawsFromRecords(records))
	log.Warn().Int("rows", len(records)).Time("saved_at", savedAt).
		Msg("serving last-known dataset snapshot")
	return records
}

func (l *Loader) observe(records []Record, source float64) {
	if l.metrics == nil {
		return
	}
	l.metrics.DatasetRowsSet(float64(len(records)))
	l.metrics.DatasetSourceSet(source)
}

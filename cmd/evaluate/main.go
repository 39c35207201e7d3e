// Command evaluate runs the offline evaluation harness against the current
// dataset and the persisted model artifact. It never trains and never
// touches serving state.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"scrap-pricer/internal/cfg"
	"scrap-pricer/internal/dataset"
	"scrap-pricer/internal/eval"
)

func main() {
	_ = godotenv.Load()

	var (
		buckets = flag.Int("buckets", 0, "number of quantile price buckets (default from config)")
		outDir  = flag.String("out", "", "output directory for reports (default from config)")
		heatmap = flag.Bool("heatmap", true, "render a confusion matrix heatmap PNG")
	)
	flag.Parse()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if *buckets > 0 {
		c.EvalBuckets = *buckets
	}
	if *outDir != "" {
		c.EvalOutputDir = *outDir
	}

	snap := initializeSnapshot(c)
	if snap != nil {
		defer snap.Close()
	}
	source := initializeSource(c)
	if closer, ok := source.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	loader := dataset.NewLoader(source, snap, nil)

	res, err := eval.Run(context.Background(), loader, c.ModelPath, c.EvalBuckets)
	if err != nil {
		log.Fatal().Err(err).Msg("evaluation failed")
	}

	if err := eval.WriteReports(res, c.EvalOutputDir); err != nil {
		log.Fatal().Err(err).Msg("failed to write reports")
	}

	if *heatmap {
		path := filepath.Join(c.EvalOutputDir, "confusion_matrix.png")
		if err := eval.RenderHeatmap(res, path); err != nil {
			log.Warn().Err(err).Msg("heatmap rendering skipped")
		} else {
			log.Info().Str("path", path).Msg("heatmap saved")
		}
	}

	fmt.Fprint(os.Stdout, res.Summary())
	log.Info().Str("dir", c.EvalOutputDir).Msg("evaluation reports written")
}

func initializeSnapshot(c cfg.Settings) *dataset.Snapshot {
	if c.DataPath == "" {
		return nil
	}
	snap, err := dataset.NewSnapshot(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("snapshot cache initialization failed, continuing without it")
		return nil
	}
	return snap
}

func initializeSource(c cfg.Settings) dataset.Source {
	if c.DatabaseURL != "" {
		src, err := dataset.NewSQLSource(c.DatabaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("postgres source initialization failed, continuing without a live store")
			return nil
		}
		return src
	}
	if c.SourceURL != "" {
		return dataset.NewRESTSource(c.SourceURL, c.SourceKey, c.FetchTimeout)
	}
	return nil
}

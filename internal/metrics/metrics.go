// Package metrics defines the Prometheus metrics for the scrap price
// service: prediction traffic, model lifecycle, and dataset degradation
// signals. Metrics are exposed on the main HTTP router at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Prediction traffic
	PredictionsTotal  prometheus.Counter   // Total number of predictions served
	RequestRejects    prometheus.Counter   // Requests rejected by validation
	ModelFailures     prometheus.Counter   // Predictions that failed inside the model
	PredictionLatency prometheus.Histogram // End-to-end prediction latency in seconds

	// Model lifecycle
	RetrainsTotal prometheus.Counter // Completed retrain cycles
	ModelAge      prometheus.Gauge   // Age of the serving model in seconds

	// Dataset
	DatasetRows   prometheus.Gauge // Rows in the last loaded dataset
	DatasetSource prometheus.Gauge // 0 live store, 1 snapshot, 2 embedded seed
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of predictions served",
		}),
		RequestRejects: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_rejects_total",
			Help: "Total number of prediction requests rejected by validation",
		}),
		ModelFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "model_failures_total",
			Help: "Total number of predictions that failed inside the model",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "End-to-end prediction latency in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		RetrainsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "retrains_total",
			Help: "Total number of completed retrain cycles",
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_age_seconds",
			Help: "Age of the serving model in seconds",
		}),
		DatasetRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dataset_rows",
			Help: "Number of rows in the last loaded dataset",
		}),
		DatasetSource: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dataset_source",
			Help: "Origin of the last loaded dataset: 0 live store, 1 snapshot, 2 embedded seed",
		}),
	}
}

// The methods below satisfy the small sink interfaces declared by consumers,
// keeping those packages free of a prometheus dependency.

func (m *Metrics) PredictionsInc()            { m.PredictionsTotal.Inc() }
func (m *Metrics) RejectsInc()                { m.RequestRejects.Inc() }
func (m *Metrics) ModelFailuresInc()          { m.ModelFailures.Inc() }
func (m *Metrics) LatencyObserve(sec float64) { m.PredictionLatency.Observe(sec) }
func (m *Metrics) RetrainsInc()               { m.RetrainsTotal.Inc() }
func (m *Metrics) ModelAgeSet(sec float64)    { m.ModelAge.Set(sec) }
func (m *Metrics) DatasetRowsSet(n float64)   { m.DatasetRows.Set(n) }
func (m *Metrics) DatasetSourceSet(v float64) { m.DatasetSource.Set(v) }

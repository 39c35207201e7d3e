package ml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
)

// ManagerMetrics receives model-lifecycle signals from the manager.
type ManagerMetrics interface {
	RetrainsInc()
	ModelAgeSet(float64)
}

// Manager owns the process-wide serving bundle. Reads take a snapshot of the
// current reference; retrains are serialized by a mutex and publish a fully
// trained and persisted bundle in a single swap, so in-flight predictions
// see either the old bundle or the new one, never a partial state.
type Manager struct {
	trainer *Trainer
	metrics ManagerMetrics

	mu     sync.RWMutex // guards bundle
	bundle *Bundle

	retrainMu sync.Mutex // serializes full retrain cycles
}

func NewManager(trainer *Trainer, metrics ManagerMetrics) *Manager {
	return &Manager{trainer: trainer, metrics: metrics}
}

// Bundle returns a snapshot of the current serving bundle, or nil before the
// first successful load.
func (m *Manager) Bundle() *Bundle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bundle
}

// EnsureLoaded makes the manager serviceable: it loads the persisted
// artifact, training first if none exists yet, and deleting then retraining
// if the artifact is corrupt. Callers see added latency in the degraded
// cases, never an error that a fresh training cycle could have absorbed.
func (m *Manager) EnsureLoaded(ctx context.Context) error {
	b, err := Load(m.trainer.ModelPath)
	if err == nil {
		m.swap(b)
		log.Info().Str("model_id", b.ID).Int("schema_version", b.SchemaVersion).
			Time("trained_at", b.TrainedAt).Msg("model artifact loaded")
		return nil
	}

	var corrupt *CorruptArtifactError
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Info().Str("path", m.trainer.ModelPath).Msg("no model artifact found, training")
	case errors.As(err, &corrupt):
		log.Warn().Err(err).Msg("model artifact is corrupt, deleting and retraining")
		if rmErr := os.Remove(corrupt.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return fmt.Errorf("remove corrupt artifact: %w", rmErr)
		}
	default:
		return err
	}

	return m.Retrain(ctx)
}

// Retrain runs a full fetch+fit+persist cycle, reloads the persisted
// artifact, and swaps it into serving state. Concurrent calls queue behind
// the retrain mutex rather than racing to write the same artifact path.
func (m *Manager) Retrain(ctx context.Context) error {
	m.retrainMu.Lock()
	defer m.retrainMu.Unlock()

	if _, err := m.trainer.TrainAndSave(ctx); err != nil {
		return fmt.Errorf("train and save model: %w", err)
	}

	// Reload from disk so serving state always mirrors the artifact.
	b, err := Load(m.trainer.ModelPath)
	if err != nil {
		return fmt.Errorf("reload model artifact: %w", err)
	}

	m.swap(b)
	if m.metrics != nil {
		m.metrics.RetrainsInc()
	}
	log.Info().Str("model_id", b.ID).Int("training_rows", b.TrainingRows).Msg("model retrained and swapped")
	return nil
}

// Predict runs one categorical row through the current bundle.
func (m *Manager) Predict(row []string) (float64, error) {
	b := m.Bundle()
	if b == nil {
		return 0, &InferenceError{Err: fmt.Errorf("no model loaded")}
	}
	return b.PredictRow(row)
}

func (m *Manager) swap(b *Bundle) {
	m.mu.Lock()
	m.bundle = b
	m.mu.Unlock()
	if m.metrics != nil {
		m.metrics.ModelAgeSet(b.Age().Seconds())
	}
}

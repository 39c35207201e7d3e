package ml

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// CorruptArtifactError reports an artifact that exists but cannot be
// deserialized. The manager reacts by deleting it and retraining.
type CorruptArtifactError struct {
	Path string
	Err  error
}

func (e *CorruptArtifactError) Error() string {
	return fmt.Sprintf("corrupt model artifact %s: %v", e.Path, e.Err)
}

func (e *CorruptArtifactError) Unwrap() error { return e.Err }

// Metadata is the JSON sidecar written next to the artifact. It duplicates
// the bundle's training diagnostics in a form operators can read without
// decoding the gob.
type Metadata struct {
	ID            string    `json:"id"`
	SchemaVersion int       `json:"schema_version"`
	TrainedAt     time.Time `json:"trained_at"`
	TrainingRows  int       `json:"training_rows"`
	HoldoutMAE    float64   `json:"holdout_mae"`
	HoldoutR2     float64   `json:"holdout_r2"`
}

// Save serializes the bundle to path atomically: the gob is written to a
// temporary file beside the final path and renamed over it, so a reader
// never observes a half-written artifact. The metadata sidecar is written
// best-effort after the rename.
func Save(b *Bundle, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(b); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode model artifact: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp artifact: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace model artifact: %w", err)
	}

	writeMetadata(b, path)
	log.Info().Str("path", path).Str("model_id", b.ID).Msg("model artifact saved")
	return nil
}

// Load deserializes a bundle from path. A missing file comes back as an
// error satisfying errors.Is(err, os.ErrNotExist); a file that exists but
// fails to decode comes back as a *CorruptArtifactError.
func Load(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model artifact: %w", err)
	}
	defer f.Close()

	var b Bundle
	if err := gob.NewDecoder(f).Decode(&b); err != nil {
		return nil, &CorruptArtifactError{Path: path, Err: err}
	}
	if b.Encoder == nil || b.Forest == nil {
		return nil, &CorruptArtifactError{Path: path, Err: fmt.Errorf("artifact is missing encoder or forest")}
	}
	return &b, nil
}

func writeMetadata(b *Bundle, artifactPath string) {
	meta := Metadata{
		ID:            b.ID,
		SchemaVersion: b.SchemaVersion,
		TrainedAt:     b.TrainedAt,
		TrainingRows:  b.TrainingRows,
		HoldoutMAE:    b.HoldoutMAE,
		HoldoutR2:     b.HoldoutR2,
	}
	if err := writeMetadataFile(meta, metadataPath(artifactPath)); err != nil {
		log.Warn().Err(err).Msg("failed to write model metadata sidecar")
	}
}

func metadataPath(artifactPath string) string {
	return artifactPath + ".json"
}

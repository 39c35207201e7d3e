package ml

import (
	"encoding/json"
	"os"
)

func writeMetadataFile(meta Metadata, path string) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// ReadMetadata loads the JSON sidecar written beside an artifact.
func ReadMetadata(artifactPath string) (Metadata, error) {
	var meta Metadata
	data, err := os.ReadFile(metadataPath(artifactPath))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}

package training

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"genreclf/internal/evaluation"
)

// Metadata is the human-readable record published next to the model.
type Metadata struct {
	GenreNames []string           `json:"genre_names"`
	Metrics    evaluation.Metrics `json:"metrics"`
}

// Marshal renders the metadata as indented JSON.
func (m Metadata) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return append(data, '\n'), nil
}

// ParseMetadata decodes a metadata record.
func ParseMetadata(data []byte) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	if len(m.GenreNames) == 0 {
		return Metadata{}, fmt.Errorf("decode metadata: genre_names is empty")
	}
	return m, nil
}

// ReadMetadata loads a metadata record from disk.
func ReadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read metadata: %w", err)
	}
	return ParseMetadata(data)
}

// Artifact points at a persisted model and its metadata.
type Artifact struct {
	ModelPath string
	MetaPath  string
	Metadata  Metadata
}

// ModelBytes reads the serialized model.
func (a Artifact) ModelBytes() ([]byte, error) {
	data, err := os.ReadFile(a.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	return data, nil
}

// MetaBytes reads the serialized metadata.
func (a Artifact) MetaBytes() ([]byte, error) {
	data, err := os.ReadFile(a.MetaPath)
	if err != nil {
		return nil, fmt.Errorf("read metadata artifact: %w", err)
	}
	return data, nil
}

// LoadArtifact reads the metadata of an artifact already on disk.
func LoadArtifact(modelPath, metaPath string) (Artifact, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return Artifact{}, fmt.Errorf("model artifact: %w", err)
	}
	meta, err := ReadMetadata(metaPath)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{ModelPath: modelPath, MetaPath: metaPath, Metadata: meta}, nil
}

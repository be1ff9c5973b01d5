package model

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"genreclf/internal/fileutil"
)

// ArtifactFormat identifies the envelope layout written by Marshal.
const ArtifactFormat = "genreclf-pipeline/v1"

// ErrCorruptArtifact is returned when a stored pipeline fails its checksum or
// format check.
var ErrCorruptArtifact = errors.New("corrupt model artifact")

// Header describes a serialized pipeline.
type Header struct {
	Format      string
	Classifier  string
	Labels      []string
	NumFeatures int
	SavedAt     time.Time
	Checksum    string
}

type envelope struct {
	Header  Header
	Payload []byte
}

// Marshal serializes a fitted pipeline.
func Marshal(p *Pipeline) ([]byte, error) {
	if p == nil || !p.Fitted() {
		return nil, fmt.Errorf("marshal: pipeline is not fitted")
	}
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(p); err != nil {
		return nil, fmt.Errorf("encode pipeline: %w", err)
	}
	env := envelope{
		Header: Header{
			Format:      ArtifactFormat,
			Classifier:  p.Config.Classifier,
			Labels:      p.Labels,
			NumFeatures: p.Vectorizer.NumFeatures(),
			SavedAt:     time.Now().UTC(),
			Checksum:    fileutil.SHA256Hex(payload.Bytes()),
		},
		Payload: payload.Bytes(),
	}

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if err := gob.NewEncoder(gzw).Encode(env); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}
	return compressed.Bytes(), nil
}

// Unmarshal decodes a pipeline written by Marshal and verifies its checksum.
func Unmarshal(data []byte) (*Pipeline, Header, error) {
	gzr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, Header{}, fmt.Errorf("%w: decompress: %v", ErrCorruptArtifact, err)
	}
	defer gzr.Close()

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, Header{}, fmt.Errorf("%w: read: %v", ErrCorruptArtifact, err)
	}
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&env); err != nil {
		return nil, Header{}, fmt.Errorf("%w: decode envelope: %v", ErrCorruptArtifact, err)
	}
	if env.Header.Format != ArtifactFormat {
		return nil, env.Header, fmt.Errorf("%w: unsupported format %q", ErrCorruptArtifact, env.Header.Format)
	}
	if sum := fileutil.SHA256Hex(env.Payload); sum != env.Header.Checksum {
		return nil, env.Header, fmt.Errorf("%w: checksum mismatch: expected %s, got %s", ErrCorruptArtifact, env.Header.Checksum, sum)
	}
	var p Pipeline
	if err := gob.NewDecoder(bytes.NewReader(env.Payload)).Decode(&p); err != nil {
		return nil, env.Header, fmt.Errorf("%w: decode pipeline: %v", ErrCorruptArtifact, err)
	}
	if !p.Fitted() {
		return nil, env.Header, fmt.Errorf("%w: pipeline has no fitted state", ErrCorruptArtifact)
	}
	return &p, env.Header, nil
}

// Encoder is implemented by models that can serialize themselves as an
// artifact blob.
type Encoder interface {
	EncodeArtifact() ([]byte, error)
}

// EncodeArtifact serializes p with Marshal.
func (p *Pipeline) EncodeArtifact() ([]byte, error) {
	return Marshal(p)
}

// Save writes a fitted pipeline to path atomically.
func Save(path string, p *Pipeline) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// Load reads a pipeline written by Save.
func Load(path string) (*Pipeline, Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Header{}, fmt.Errorf("read model: %w", err)
	}
	return Unmarshal(data)
}

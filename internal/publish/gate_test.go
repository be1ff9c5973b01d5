package publish_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"genreclf/internal/evaluation"
	"genreclf/internal/logging"
	"genreclf/internal/publish"
	"genreclf/internal/services"
	"genreclf/internal/services/registry"
	"genreclf/internal/training"
)

type memoryRegistry struct {
	blobs    map[string][]byte
	fetchErr error
	putErr   map[string]error
	puts     []string
}

func newMemoryRegistry() *memoryRegistry {
	return &memoryRegistry{blobs: map[string][]byte{}, putErr: map[string]error{}}
}

func (m *memoryRegistry) Fetch(_ context.Context, key string) ([]byte, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	data, ok := m.blobs[key]
	if !ok {
		return nil, fmt.Errorf("key %q: %w", key, registry.ErrNotFound)
	}
	return data, nil
}

func (m *memoryRegistry) Put(_ context.Context, key string, data []byte) error {
	if err := m.putErr[key]; err != nil {
		return err
	}
	m.puts = append(m.puts, key)
	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

func metadataBytes(t *testing.T, f1 float64) []byte {
	t.Helper()
	meta := training.Metadata{
		GenreNames: []string{"Action", "Drama"},
		Metrics:    evaluation.Metrics{F1Micro: f1, F1Macro: f1 / 2},
	}
	data, err := meta.Marshal()
	if err != nil {
		t.Fatalf("marshal metadata: %v", err)
	}
	return data
}

func writeArtifact(t *testing.T, f1 float64) training.Artifact {
	t.Helper()
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "genre_model.gob.gz")
	metaPath := filepath.Join(dir, "genre_meta.json")
	if err := os.WriteFile(modelPath, []byte(fmt.Sprintf("model-%v", f1)), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	if err := os.WriteFile(metaPath, metadataBytes(t, f1), 0o644); err != nil {
		t.Fatalf("write meta: %v", err)
	}
	artifact, err := training.LoadArtifact(modelPath, metaPath)
	if err != nil {
		t.Fatalf("load artifact: %v", err)
	}
	return artifact
}

func newGate(reg registry.Registry, strict bool) *publish.Gate {
	return publish.NewGate(reg, publish.Options{Metric: "f1_micro", StrictPrior: strict}, logging.NewNop())
}

func TestMaybePublishDecisions(t *testing.T) {
	cases := []struct {
		name     string
		prior    *float64
		newValue float64
		want     publish.Decision
	}{
		{name: "improvement", prior: ptr(0.40), newValue: 0.50, want: publish.Published},
		{name: "regression", prior: ptr(0.60), newValue: 0.55, want: publish.Skipped},
		{name: "first publish", prior: nil, newValue: 0.10, want: publish.Published},
		{name: "equal", prior: ptr(0.50), newValue: 0.50, want: publish.Skipped},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reg := newMemoryRegistry()
			if tc.prior != nil {
				reg.blobs["genre_meta"] = metadataBytes(t, *tc.prior)
				reg.blobs["genre_model"] = []byte("old-model")
			}
			artifact := writeArtifact(t, tc.newValue)

			outcome, err := newGate(reg, false).MaybePublish(context.Background(), tc.newValue, artifact)
			if err != nil {
				t.Fatalf("MaybePublish returned error: %v", err)
			}
			if outcome.Decision != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, outcome.Decision)
			}
			if outcome.HasPrior() != (tc.prior != nil) {
				t.Fatalf("unexpected prior state %s", outcome.PriorState)
			}

			switch tc.want {
			case publish.Published:
				if len(reg.puts) != 2 || reg.puts[0] != "genre_model" || reg.puts[1] != "genre_meta" {
					t.Fatalf("expected model then meta upload, got %v", reg.puts)
				}
				if string(reg.blobs["genre_model"]) != fmt.Sprintf("model-%v", tc.newValue) {
					t.Fatalf("model blob not replaced: %q", reg.blobs["genre_model"])
				}
			case publish.Skipped:
				if len(reg.puts) != 0 {
					t.Fatalf("expected no uploads, got %v", reg.puts)
				}
				if string(reg.blobs["genre_model"]) != "old-model" {
					t.Fatal("published model must remain canonical after skip")
				}
			}
		})
	}
}

func TestMaybePublishIsIdempotent(t *testing.T) {
	reg := newMemoryRegistry()
	reg.blobs["genre_meta"] = metadataBytes(t, 0.7)
	artifact := writeArtifact(t, 0.6)
	gate := newGate(reg, false)
	for i := 0; i < 3; i++ {
		outcome, err := gate.MaybePublish(context.Background(), 0.6, artifact)
		if err != nil || outcome.Decision != publish.Skipped {
			t.Fatalf("run %d: expected skip, got %s (%v)", i, outcome.Decision, err)
		}
	}
}

func TestRegistryOutageTreatedAsFirstPublish(t *testing.T) {
	reg := newMemoryRegistry()
	reg.fetchErr = services.Wrap(services.ErrRegistry, "registry", "fetch", "genre_meta", errors.New("connection refused"))
	artifact := writeArtifact(t, 0.3)

	outcome, err := newGate(reg, false).MaybePublish(context.Background(), 0.3, artifact)
	if err != nil {
		t.Fatalf("MaybePublish returned error: %v", err)
	}
	if outcome.Decision != publish.Published || outcome.PriorState != publish.PriorUnavailable {
		t.Fatalf("expected publish with unavailable prior, got %+v", outcome)
	}
}

func TestStrictPriorSurfacesOutage(t *testing.T) {
	reg := newMemoryRegistry()
	reg.fetchErr = errors.New("connection refused")
	artifact := writeArtifact(t, 0.3)

	_, err := newGate(reg, true).MaybePublish(context.Background(), 0.3, artifact)
	if !errors.Is(err, services.ErrRegistry) {
		t.Fatalf("expected registry error, got %v", err)
	}
	if len(reg.puts) != 0 {
		t.Fatalf("expected no uploads, got %v", reg.puts)
	}
}

func TestStrictPriorStillAllowsFirstPublish(t *testing.T) {
	reg := newMemoryRegistry()
	artifact := writeArtifact(t, 0.3)
	outcome, err := newGate(reg, true).MaybePublish(context.Background(), 0.3, artifact)
	if err != nil || outcome.Decision != publish.Published {
		t.Fatalf("expected first publish in strict mode, got %+v (%v)", outcome, err)
	}
}

func TestUploadFailureIsRegistryError(t *testing.T) {
	reg := newMemoryRegistry()
	reg.putErr["genre_meta"] = errors.New("quota exceeded")
	artifact := writeArtifact(t, 0.3)

	_, err := newGate(reg, false).MaybePublish(context.Background(), 0.3, artifact)
	if !errors.Is(err, services.ErrRegistry) {
		t.Fatalf("expected registry error, got %v", err)
	}
	if _, statErr := os.Stat(artifact.ModelPath); statErr != nil {
		t.Fatalf("local artifact must survive upload failure: %v", statErr)
	}
}

func TestGateComparesConfiguredMetric(t *testing.T) {
	reg := newMemoryRegistry()
	reg.blobs["genre_meta"] = metadataBytes(t, 0.8) // f1_macro 0.4
	artifact := writeArtifact(t, 0.5)
	gate := publish.NewGate(reg, publish.Options{Metric: "f1_macro"}, logging.NewNop())

	outcome, err := gate.MaybePublish(context.Background(), 0.45, artifact)
	if err != nil {
		t.Fatalf("MaybePublish returned error: %v", err)
	}
	if outcome.Decision != publish.Published || outcome.PriorValue != 0.4 {
		t.Fatalf("expected f1_macro comparison against 0.4, got %+v", outcome)
	}
}

func ptr(v float64) *float64 { return &v }

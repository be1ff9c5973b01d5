package training_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"genreclf/internal/dataset"
	"genreclf/internal/genres"
	"genreclf/internal/labels"
	"genreclf/internal/logging"
	"genreclf/internal/model"
	"genreclf/internal/services"
	"genreclf/internal/split"
	"genreclf/internal/training"
)

func testConfig() training.Config {
	return training.Config{
		TestSize:    0.25,
		RandomState: 42,
		MaxFeatures: 1000,
		MinDF:       1,
		Classifier:  model.LinearSVC,
		C:           1,
		MaxIter:     1000,
		Policy:      training.PolicyThreshold,
		Threshold:   0.25,
	}
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.csv")
	body := "id,title,overview,genre_ids,original_language,release_date,vote_average,vote_count,popularity\n" +
		"1,War Hero,A soldier fights in a brutal war.,\"[10752, 28]\",en,2010-01-01,7.5,100,12.0\n" +
		"2,Romantic Escape,Two people fall in love on holiday.,\"[10749, 18]\",en,2010-01-01,7.0,80,11.0\n" +
		"3,Haunted House,A family moves into a haunted house.,\"[27, 53]\",en,2010-01-01,6.8,50,9.0\n" +
		"4,Space Adventure,An astronaut travels through space.,\"[878, 12]\",en,2010-01-01,8.0,120,13.0\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunEndToEnd(t *testing.T) {
	records, err := dataset.Load(writeFixture(t))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	catalog := genres.Default()
	y, vocab := labels.Build(records, catalog)
	cfg := testConfig()
	part, err := split.Split(dataset.Overviews(records), y, cfg.TestSize, cfg.RandomState)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}
	if len(part.TrainTexts) == 0 || len(part.TestTexts) == 0 {
		t.Fatalf("expected non-empty split, got %d/%d", len(part.TrainTexts), len(part.TestTexts))
	}
	m, err := model.Build(cfg.ModelConfig())
	if err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(t.TempDir(), "artifacts")
	trainer := training.New(cfg, dir, logging.NewNop())
	result, err := trainer.Run(context.Background(), part, vocab, m)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(result.Metrics.PerGenreF1) != len(vocab) {
		t.Fatalf("per_genre_f1 has %d entries, want %d", len(result.Metrics.PerGenreF1), len(vocab))
	}
	for _, name := range vocab {
		if _, ok := result.Metrics.PerGenreF1[name]; !ok {
			t.Fatalf("per_genre_f1 missing %q", name)
		}
	}
	if result.Metrics.NTrain != 3 || result.Metrics.NTest != 1 || result.Metrics.Threshold != 0.25 {
		t.Fatalf("unexpected counts: %+v", result.Metrics)
	}
	if result.Metrics.F1Micro < 0 || result.Metrics.F1Micro > 1 {
		t.Fatalf("f1_micro out of range: %v", result.Metrics.F1Micro)
	}

	for _, path := range []string{result.Artifact.ModelPath, result.Artifact.MetaPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected artifact %s: %v", path, err)
		}
	}
	meta, err := training.ReadMetadata(result.Artifact.MetaPath)
	if err != nil {
		t.Fatalf("ReadMetadata returned error: %v", err)
	}
	if !reflect.DeepEqual(meta, result.Artifact.Metadata) {
		t.Fatalf("metadata on disk differs from result: %+v", meta)
	}
	loaded, header, err := model.Load(result.Artifact.ModelPath)
	if err != nil {
		t.Fatalf("model.Load returned error: %v", err)
	}
	if !reflect.DeepEqual(header.Labels, vocab) || loaded.NumLabels() != len(vocab) {
		t.Fatalf("reloaded model labels %v", header.Labels)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	meta := training.Metadata{
		GenreNames: []string{"Action", "Drama"},
	}
	meta.Metrics.F1Micro = 0.42
	meta.Metrics.NTrain = 10
	meta.Metrics.PerGenreF1 = map[string]float64{"Action": 0.5, "Drama": 0.25}

	data, err := meta.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	back, err := training.ParseMetadata(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back, meta) {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, meta)
	}
	if _, err := training.ParseMetadata([]byte(`{"genre_names": []}`)); err == nil {
		t.Fatal("expected error for empty genre_names")
	}
}

type hardOnlyModel struct{ fitErr error }

func (h *hardOnlyModel) Fit([]string, labels.Matrix) error { return h.fitErr }

func (h *hardOnlyModel) Predict(texts []string) (labels.Matrix, error) {
	return labels.NewMatrix(len(texts), 2), nil
}

func smallPartition(t *testing.T) split.Partition {
	t.Helper()
	y, _ := labels.FromRows([][]uint8{{1, 0}, {0, 1}, {1, 0}, {0, 1}})
	p, err := split.Split([]string{"alpha beta", "gamma delta", "alpha epsilon", "gamma zeta"}, y, 0.25, 1)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestThresholdPolicyRequiresScorer(t *testing.T) {
	dir := t.TempDir()
	trainer := training.New(testConfig(), dir, logging.NewNop())
	_, err := trainer.Run(context.Background(), smallPartition(t), []string{"X", "Y"}, &hardOnlyModel{})
	if !errors.Is(err, services.ErrTraining) {
		t.Fatalf("expected training error, got %v", err)
	}
	if _, statErr := os.Stat(trainer.MetaPath()); !os.IsNotExist(statErr) {
		t.Fatal("expected no metadata to be written")
	}
}

func TestFitFailureLeavesPreviousArtifacts(t *testing.T) {
	dir := t.TempDir()
	trainer := training.New(testConfig(), dir, logging.NewNop())
	if err := os.WriteFile(trainer.ModelPath(), []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := trainer.Run(context.Background(), smallPartition(t), []string{"X", "Y"}, &hardOnlyModel{fitErr: errors.New("boom")})
	if !errors.Is(err, services.ErrTraining) {
		t.Fatalf("expected training error, got %v", err)
	}
	data, err := os.ReadFile(trainer.ModelPath())
	if err != nil || string(data) != "previous" {
		t.Fatalf("previous artifact changed: %q, %v", data, err)
	}
}

func TestDirectPolicyWithoutEncoderFailsBeforeWrite(t *testing.T) {
	cfg := testConfig()
	cfg.Policy = training.PolicyDirect
	dir := t.TempDir()
	trainer := training.New(cfg, dir, logging.NewNop())
	_, err := trainer.Run(context.Background(), smallPartition(t), []string{"X", "Y"}, &hardOnlyModel{})
	if !errors.Is(err, services.ErrTraining) {
		t.Fatalf("expected training error, got %v", err)
	}
	if _, statErr := os.Stat(trainer.ModelPath()); !os.IsNotExist(statErr) {
		t.Fatal("expected no model to be written")
	}
}

func TestDirectPolicyRecordsHalfThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.Policy = training.PolicyDirect
	m, _ := model.Build(cfg.ModelConfig())
	trainer := training.New(cfg, t.TempDir(), logging.NewNop())
	result, err := trainer.Run(context.Background(), smallPartition(t), []string{"X", "Y"}, m)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Metrics.Threshold != 0.5 {
		t.Fatalf("threshold = %v, want 0.5", result.Metrics.Threshold)
	}
}

func TestVocabularyWidthMismatch(t *testing.T) {
	m, _ := model.Build(testConfig().ModelConfig())
	trainer := training.New(testConfig(), t.TempDir(), logging.NewNop())
	_, err := trainer.Run(context.Background(), smallPartition(t), []string{"only-one"}, m)
	if !errors.Is(err, services.ErrTraining) {
		t.Fatalf("expected training error, got %v", err)
	}
}

func TestCanceledRunIsTrainingError(t *testing.T) {
	m, _ := model.Build(testConfig().ModelConfig())
	trainer := training.New(testConfig(), t.TempDir(), logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := trainer.Run(ctx, smallPartition(t), []string{"X", "Y"}, m)
	if !errors.Is(err, services.ErrTraining) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled training error, got %v", err)
	}
	if kind := services.Kind(err); kind != "training" {
		t.Fatalf("Kind = %q, want training", kind)
	}
	if _, statErr := os.Stat(trainer.ModelPath()); !os.IsNotExist(statErr) {
		t.Fatal("expected no model to be written")
	}
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]func(*training.Config){
		"test size":  func(c *training.Config) { c.TestSize = 0 },
		"threshold":  func(c *training.Config) { c.Threshold = 1 },
		"policy":     func(c *training.Config) { c.Policy = "vote" },
		"features":   func(c *training.Config) { c.MaxFeatures = -1 },
		"classifier": func(c *training.Config) { c.Classifier = "tree" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
	if err := testConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestBinarize(t *testing.T) {
	m := training.Binarize([][]float64{{0, -2, -1}}, 0.25)
	// sigmoid: 0.5, 0.119, 0.269
	if m.At(0, 0) != 1 || m.At(0, 1) != 0 || m.At(0, 2) != 1 {
		t.Fatalf("unexpected row %v", m.Row(0))
	}
}

package training

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"genreclf/internal/config"
	"genreclf/internal/evaluation"
	"genreclf/internal/fileutil"
	"genreclf/internal/labels"
	"genreclf/internal/logging"
	"genreclf/internal/model"
	"genreclf/internal/services"
	"genreclf/internal/split"
)

const stageTrain = "train"

// Result is the outcome of a successful run.
type Result struct {
	Model    model.Model
	Metrics  evaluation.Metrics
	Artifact Artifact
	Duration time.Duration
}

// Trainer fits, evaluates, and persists one model per Run.
type Trainer struct {
	cfg         Config
	artifactDir string
	logger      *slog.Logger
}

// New returns a trainer writing artifacts into artifactDir.
func New(cfg Config, artifactDir string, logger *slog.Logger) *Trainer {
	return &Trainer{
		cfg:         cfg,
		artifactDir: artifactDir,
		logger:      logging.NewComponentLogger(logger, "trainer"),
	}
}

// ModelPath is where Run writes the model blob.
func (t *Trainer) ModelPath() string {
	return filepath.Join(t.artifactDir, config.ModelFileName)
}

// MetaPath is where Run writes the metadata record.
func (t *Trainer) MetaPath() string {
	return filepath.Join(t.artifactDir, config.MetaFileName)
}

// Run fits m on the training side of p, scores the test side, and persists the
// model and metadata. vocabulary names the label columns.
func (t *Trainer) Run(ctx context.Context, p split.Partition, vocabulary []string, m model.Model) (Result, error) {
	ctx = services.WithStage(ctx, stageTrain)
	logger := logging.WithContext(ctx, t.logger)
	started := time.Now()

	if err := t.cfg.Validate(); err != nil {
		return Result{}, err
	}
	if m == nil {
		return Result{}, services.Wrap(services.ErrTraining, stageTrain, "fit", "no model supplied", nil)
	}
	if p.TrainLabels.Cols != len(vocabulary) || p.TestLabels.Cols != len(vocabulary) {
		return Result{}, services.Wrap(services.ErrTraining, stageTrain, "fit",
			fmt.Sprintf("label width %d/%d does not match vocabulary size %d", p.TrainLabels.Cols, p.TestLabels.Cols, len(vocabulary)), nil)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, services.Wrap(services.ErrTraining, stageTrain, "fit", "", err)
	}

	logger.Info("fitting model",
		logging.Int("n_train", len(p.TrainTexts)),
		logging.Int("n_test", len(p.TestTexts)),
		logging.Int("labels", len(vocabulary)),
		logging.String("classifier", t.cfg.Classifier),
	)
	if err := m.Fit(p.TrainTexts, p.TrainLabels); err != nil {
		return Result{}, services.Wrap(services.ErrTraining, stageTrain, "fit", "", err)
	}
	if pipe, ok := m.(*model.Pipeline); ok {
		pipe.Labels = slices.Clone(vocabulary)
		if constant := pipe.Classifier.ConstantLabels(); len(constant) > 0 {
			names := make([]string, len(constant))
			for i, j := range constant {
				names[i] = vocabulary[j]
			}
			logging.WarnWithContext(logger, "labels had a single class in training", "constant_labels",
				logging.Any("labels", names),
				logging.String(logging.FieldImpact, "these genres are predicted constantly"),
				logging.String(logging.FieldErrorHint, "fetch more data covering these genres"),
			)
		}
		logger.Debug("vectorizer fitted", logging.Int("features", pipe.Vectorizer.NumFeatures()))
	}
	if err := ctx.Err(); err != nil {
		return Result{}, services.Wrap(services.ErrTraining, stageTrain, "predict", "", err)
	}

	pred, err := t.predict(m, p.TestTexts)
	if err != nil {
		return Result{}, err
	}
	metrics, err := evaluation.Compute(p.TestLabels, pred, vocabulary)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTraining, stageTrain, "evaluate", "", err)
	}
	metrics.NTrain = len(p.TrainTexts)
	metrics.NTest = len(p.TestTexts)
	metrics.Threshold = t.cfg.EffectiveThreshold()

	logger.Info("model evaluated",
		logging.Float64("f1_micro", metrics.F1Micro),
		logging.Float64("f1_macro", metrics.F1Macro),
		logging.Float64("precision_micro", metrics.PrecisionMicro),
		logging.Float64("recall_micro", metrics.RecallMicro),
		logging.String("policy", t.cfg.Policy),
	)

	meta := Metadata{GenreNames: slices.Clone(vocabulary), Metrics: metrics}
	artifact, err := t.persist(m, meta)
	if err != nil {
		return Result{}, err
	}
	logger.Info("artifacts written",
		logging.String("model_path", artifact.ModelPath),
		logging.String("meta_path", artifact.MetaPath),
	)

	return Result{
		Model:    m,
		Metrics:  metrics,
		Artifact: artifact,
		Duration: time.Since(started),
	}, nil
}

func (t *Trainer) predict(m model.Model, texts []string) (labels.Matrix, error) {
	switch t.cfg.Policy {
	case PolicyDirect:
		pred, err := m.Predict(texts)
		if err != nil {
			return labels.Matrix{}, services.Wrap(services.ErrTraining, stageTrain, "predict", "", err)
		}
		return pred, nil
	case PolicyThreshold:
		scorer, ok := m.(model.Scorer)
		if !ok {
			return labels.Matrix{}, services.Wrap(services.ErrTraining, stageTrain, "predict",
				"threshold policy requires a model with decision scores", nil)
		}
		scores, err := scorer.DecisionScores(texts)
		if err != nil {
			return labels.Matrix{}, services.Wrap(services.ErrTraining, stageTrain, "predict", "", err)
		}
		return Binarize(scores, t.cfg.Threshold), nil
	default:
		return labels.Matrix{}, services.Wrap(services.ErrConfiguration, stageTrain, "predict",
			fmt.Sprintf("unknown prediction policy %q", t.cfg.Policy), nil)
	}
}

// Binarize applies the sigmoid to each score and sets cells at or above
// threshold.
func Binarize(scores [][]float64, threshold float64) labels.Matrix {
	cols := 0
	if len(scores) > 0 {
		cols = len(scores[0])
	}
	out := labels.NewMatrix(len(scores), cols)
	for i, row := range scores {
		for j, s := range row {
			if model.Sigmoid(s) >= threshold {
				out.Set(i, j, 1)
			}
		}
	}
	return out
}

func (t *Trainer) persist(m model.Model, meta Metadata) (Artifact, error) {
	encoder, ok := m.(model.Encoder)
	if !ok {
		return Artifact{}, services.Wrap(services.ErrTraining, stageTrain, "persist", "model cannot be serialized", nil)
	}
	blob, err := encoder.EncodeArtifact()
	if err != nil {
		return Artifact{}, services.Wrap(services.ErrTraining, stageTrain, "encode model", "", err)
	}
	metaBytes, err := meta.Marshal()
	if err != nil {
		return Artifact{}, services.Wrap(services.ErrTraining, stageTrain, "encode metadata", "", err)
	}

	artifact := Artifact{ModelPath: t.ModelPath(), MetaPath: t.MetaPath(), Metadata: meta}
	if err := fileutil.WriteFileAtomic(artifact.ModelPath, blob, 0o644); err != nil {
		return Artifact{}, services.Wrap(services.ErrTraining, stageTrain, "write model", artifact.ModelPath, err)
	}
	if err := fileutil.WriteFileAtomic(artifact.MetaPath, metaBytes, 0o644); err != nil {
		return Artifact{}, services.Wrap(services.ErrTraining, stageTrain, "write metadata", artifact.MetaPath, err)
	}
	return artifact, nil
}

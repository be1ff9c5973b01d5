package model

import (
	"fmt"
	"math"

	"genreclf/internal/labels"
	"genreclf/internal/services"
	"genreclf/internal/textfeat"
)

// Classifier strategy names.
const (
	LinearSVC = "linear_svc"
	Logistic  = "logistic"
)

// Model is a trainable text to multi-label predictor.
type Model interface {
	Fit(texts []string, y labels.Matrix) error
	Predict(texts []string) (labels.Matrix, error)
}

// Scorer is implemented by models that expose an unbounded decision score per
// label.
type Scorer interface {
	DecisionScores(texts []string) ([][]float64, error)
}

// Config holds the structural and solver settings of a pipeline.
type Config struct {
	MaxFeatures int
	MinDF       int
	Classifier  string
	C           float64
	MaxIter     int
	// Tol is the solver stopping tolerance; zero selects 1e-4.
	Tol  float64
	Seed int64
}

const defaultTol = 1e-4

// Validate checks ranges and the classifier name.
func (c Config) Validate() error {
	switch {
	case c.MaxFeatures <= 0:
		return fmt.Errorf("max_features must be positive, got %d", c.MaxFeatures)
	case c.MinDF < 1:
		return fmt.Errorf("min_df must be >= 1, got %d", c.MinDF)
	case !(c.C > 0) || math.IsInf(c.C, 0):
		return fmt.Errorf("c must be a positive finite number, got %v", c.C)
	case c.MaxIter <= 0:
		return fmt.Errorf("max_iter must be positive, got %d", c.MaxIter)
	case c.Tol < 0:
		return fmt.Errorf("tol must be non-negative, got %v", c.Tol)
	}
	switch c.Classifier {
	case LinearSVC, Logistic:
	default:
		return fmt.Errorf("unknown classifier %q", c.Classifier)
	}
	return nil
}

func (c Config) tol() float64 {
	if c.Tol == 0 {
		return defaultTol
	}
	return c.Tol
}

// Build returns an untrained pipeline. Invalid settings carry
// services.ErrConfiguration.
func Build(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "build", "validate model config", "", err)
	}
	vec, err := textfeat.NewVectorizer(textfeat.DefaultOptions(cfg.MaxFeatures, cfg.MinDF))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "build", "vectorizer", "", err)
	}
	return &Pipeline{Vectorizer: vec, Config: cfg}, nil
}

// Sigmoid maps a decision score into (0, 1).
func Sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

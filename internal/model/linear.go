package model

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"genreclf/internal/textfeat"
)

// constantScore is the decision score of a label that had a single class in
// training. It is far enough from zero that sigmoid thresholds never flip it.
// An all-negative column scores -constantScore instead of a neutral 0, so a
// genre absent from the training rows is never predicted at a 0.25 threshold.
const constantScore = 10.0

// Linear is a fitted binary estimator: score = w·x + b. A nil weight vector
// scores every input as Bias.
type Linear struct {
	Weights []float64
	Bias    float64
}

// Score returns the decision value for x.
func (l Linear) Score(x textfeat.SparseVector) float64 {
	if l.Weights == nil {
		return l.Bias
	}
	return x.Dot(l.Weights) + l.Bias
}

// Constant reports whether the estimator ignores its input.
func (l Linear) Constant() bool {
	return l.Weights == nil
}

// BinaryTrainer fits one label column.
type BinaryTrainer interface {
	Train(x []textfeat.SparseVector, nFeatures int, y []uint8) (Linear, error)
}

func newTrainer(cfg Config) (BinaryTrainer, error) {
	switch cfg.Classifier {
	case LinearSVC:
		return svcTrainer{C: cfg.C, MaxIter: cfg.MaxIter, Tol: cfg.tol(), Seed: cfg.Seed}, nil
	case Logistic:
		return logisticTrainer{C: cfg.C, MaxIter: cfg.MaxIter, Tol: cfg.tol()}, nil
	default:
		return nil, fmt.Errorf("unknown classifier %q", cfg.Classifier)
	}
}

// constantFor returns a constant estimator when y holds a single class.
func constantFor(y []uint8) (Linear, bool) {
	first := y[0]
	for _, v := range y[1:] {
		if v != first {
			return Linear{}, false
		}
	}
	if first == 1 {
		return Linear{Bias: constantScore}, true
	}
	return Linear{Bias: -constantScore}, true
}

func checkBinaryInput(x []textfeat.SparseVector, nFeatures int, y []uint8) error {
	if len(x) == 0 {
		return fmt.Errorf("no training rows")
	}
	if len(x) != len(y) {
		return fmt.Errorf("dimension mismatch: %d rows, %d labels", len(x), len(y))
	}
	for i, row := range x {
		if len(row.Indices) != len(row.Values) {
			return fmt.Errorf("row %d: malformed sparse vector", i)
		}
		for _, idx := range row.Indices {
			if idx < 0 || idx >= nFeatures {
				return fmt.Errorf("row %d: feature index %d outside [0, %d)", i, idx, nFeatures)
			}
		}
	}
	return nil
}

func sign(v uint8) float64 {
	if v == 1 {
		return 1
	}
	return -1
}

func squaredNorm(values []float64) float64 {
	return floats.Dot(values, values)
}

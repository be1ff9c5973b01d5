package model

import (
	"fmt"

	"genreclf/internal/labels"
	"genreclf/internal/textfeat"
)

// OneVsRest holds one independent binary estimator per label column.
type OneVsRest struct {
	Estimators []Linear
}

func (o *OneVsRest) fit(trainer BinaryTrainer, x []textfeat.SparseVector, nFeatures int, y labels.Matrix) error {
	estimators := make([]Linear, y.Cols)
	for j := range y.Cols {
		est, err := trainer.Train(x, nFeatures, y.Column(j))
		if err != nil {
			return fmt.Errorf("label %d: %w", j, err)
		}
		estimators[j] = est
	}
	o.Estimators = estimators
	return nil
}

// ConstantLabels returns the columns that had a single class in training.
func (o OneVsRest) ConstantLabels() []int {
	var out []int
	for j, est := range o.Estimators {
		if est.Constant() {
			out = append(out, j)
		}
	}
	return out
}

func (o OneVsRest) scores(x []textfeat.SparseVector) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		scores := make([]float64, len(o.Estimators))
		for j, est := range o.Estimators {
			scores[j] = est.Score(row)
		}
		out[i] = scores
	}
	return out
}

package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"genreclf/internal/textfeat"
)

// logisticTrainer minimises ½‖w‖² + C Σ log(1 + exp(−yᵢ(w·xᵢ + b))) with
// L-BFGS. The intercept is the last parameter and is not regularised.
type logisticTrainer struct {
	C       float64
	MaxIter int
	Tol     float64
}

func (l logisticTrainer) Train(x []textfeat.SparseVector, nFeatures int, y []uint8) (Linear, error) {
	if err := checkBinaryInput(x, nFeatures, y); err != nil {
		return Linear{}, err
	}
	if constant, ok := constantFor(y); ok {
		return constant, nil
	}

	signs := make([]float64, len(y))
	for i := range y {
		signs[i] = sign(y[i])
	}
	margin := func(theta []float64, i int) float64 {
		return signs[i] * (x[i].Dot(theta[:nFeatures]) + theta[nFeatures])
	}

	problem := optimize.Problem{
		Func: func(theta []float64) float64 {
			w := theta[:nFeatures]
			loss := 0.5 * floats.Dot(w, w)
			for i := range x {
				loss += l.C * logLoss(margin(theta, i))
			}
			return loss
		},
		Grad: func(grad, theta []float64) {
			copy(grad, theta)
			grad[nFeatures] = 0
			for i := range x {
				coef := -signs[i] * Sigmoid(-margin(theta, i)) * l.C
				for k, idx := range x[i].Indices {
					grad[idx] += coef * x[i].Values[k]
				}
				grad[nFeatures] += coef
			}
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: l.Tol,
		MajorIterations:   l.MaxIter,
	}

	result, err := optimize.Minimize(problem, make([]float64, nFeatures+1), settings, &optimize.LBFGS{})
	// A line search that stalls next to the optimum still reports the best
	// location found.
	if result == nil || !allFinite(result.X) {
		return Linear{}, fmt.Errorf("logistic regression did not converge: %v", err)
	}
	w := make([]float64, nFeatures)
	copy(w, result.X[:nFeatures])
	return Linear{Weights: w, Bias: result.X[nFeatures]}, nil
}

// logLoss is log(1 + exp(−m)) without overflow.
func logLoss(m float64) float64 {
	if m > 0 {
		return math.Log1p(math.Exp(-m))
	}
	return -m + math.Log1p(math.Exp(m))
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

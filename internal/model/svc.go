package model

import (
	"math"
	"math/rand/v2"

	"genreclf/internal/textfeat"
)

// svcTrainer solves the L2-regularised squared-hinge SVM dual
//
//	min_α ½ αᵀ(Q + D)α − eᵀα,  α ≥ 0,  D_ii = 1/(2C)
//
// by coordinate descent over a seeded random permutation each pass. The bias
// is learned as the weight of a constant feature 1.
type svcTrainer struct {
	C       float64
	MaxIter int
	Tol     float64
	Seed    int64
}

func (s svcTrainer) Train(x []textfeat.SparseVector, nFeatures int, y []uint8) (Linear, error) {
	if err := checkBinaryInput(x, nFeatures, y); err != nil {
		return Linear{}, err
	}
	if constant, ok := constantFor(y); ok {
		return constant, nil
	}

	n := len(x)
	diag := 1 / (2 * s.C)
	qd := make([]float64, n)
	for i := range x {
		qd[i] = diag + squaredNorm(x[i].Values) + 1
	}

	w := make([]float64, nFeatures)
	var b float64
	alpha := make([]float64, n)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewPCG(uint64(s.Seed), uint64(s.Seed)+1))

	for iter := 0; iter < s.MaxIter; iter++ {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		pgMax, pgMin := math.Inf(-1), math.Inf(1)
		for _, i := range order {
			yi := sign(y[i])
			g := yi*(x[i].Dot(w)+b) - 1 + diag*alpha[i]
			pg := g
			if alpha[i] == 0 {
				pg = math.Min(g, 0)
			}
			pgMax = math.Max(pgMax, pg)
			pgMin = math.Min(pgMin, pg)
			if math.Abs(pg) <= 1e-12 {
				continue
			}
			old := alpha[i]
			alpha[i] = math.Max(alpha[i]-g/qd[i], 0)
			d := (alpha[i] - old) * yi
			for k, idx := range x[i].Indices {
				w[idx] += d * x[i].Values[k]
			}
			b += d
		}
		if iter > 0 && pgMax-pgMin <= s.Tol {
			break
		}
	}
	return Linear{Weights: w, Bias: b}, nil
}

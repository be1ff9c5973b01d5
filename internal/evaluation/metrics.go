// Package evaluation scores multi-label predictions against ground truth.
//
// Micro averages pool every (row, label) decision into one confusion count.
// Macro averages take the unweighted mean of per-label values. Any ratio with
// a zero denominator is defined as 0.
package evaluation

import (
	"fmt"

	"genreclf/internal/labels"
)

// Metrics is the evaluation record stored alongside a trained model.
type Metrics struct {
	PrecisionMicro float64            `json:"precision_micro"`
	RecallMicro    float64            `json:"recall_micro"`
	F1Micro        float64            `json:"f1_micro"`
	PrecisionMacro float64            `json:"precision_macro"`
	RecallMacro    float64            `json:"recall_macro"`
	F1Macro        float64            `json:"f1_macro"`
	NTrain         int                `json:"n_train"`
	NTest          int                `json:"n_test"`
	Threshold      float64            `json:"threshold"`
	PerGenreF1     map[string]float64 `json:"per_genre_f1"`
}

// Value returns the scalar metric called name.
func (m Metrics) Value(name string) (float64, bool) {
	switch name {
	case "f1_micro":
		return m.F1Micro, true
	case "f1_macro":
		return m.F1Macro, true
	case "precision_micro":
		return m.PrecisionMicro, true
	case "recall_micro":
		return m.RecallMicro, true
	case "precision_macro":
		return m.PrecisionMacro, true
	case "recall_macro":
		return m.RecallMacro, true
	default:
		return 0, false
	}
}

type counts struct {
	tp, fp, fn int
}

func (c counts) precision() float64 { return ratio(c.tp, c.tp+c.fp) }

func (c counts) recall() float64 { return ratio(c.tp, c.tp+c.fn) }

func (c counts) f1() float64 { return ratio(2*c.tp, 2*c.tp+c.fp+c.fn) }

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Compute scores yPred against yTrue. names labels the columns and must match
// the column count.
func Compute(yTrue, yPred labels.Matrix, names []string) (Metrics, error) {
	if yTrue.Rows != yPred.Rows || yTrue.Cols != yPred.Cols {
		return Metrics{}, fmt.Errorf("shape mismatch: truth %dx%d, prediction %dx%d",
			yTrue.Rows, yTrue.Cols, yPred.Rows, yPred.Cols)
	}
	if len(names) != yTrue.Cols {
		return Metrics{}, fmt.Errorf("%d label names for %d columns", len(names), yTrue.Cols)
	}

	perLabel := make([]counts, yTrue.Cols)
	for i := range yTrue.Rows {
		for j := range yTrue.Cols {
			truth, pred := yTrue.At(i, j) == 1, yPred.At(i, j) == 1
			switch {
			case truth && pred:
				perLabel[j].tp++
			case pred:
				perLabel[j].fp++
			case truth:
				perLabel[j].fn++
			}
		}
	}

	var micro counts
	var sumP, sumR, sumF float64
	perGenre := make(map[string]float64, len(names))
	for j, c := range perLabel {
		micro.tp += c.tp
		micro.fp += c.fp
		micro.fn += c.fn
		sumP += c.precision()
		sumR += c.recall()
		f1 := c.f1()
		sumF += f1
		perGenre[names[j]] = f1
	}

	m := Metrics{
		PrecisionMicro: micro.precision(),
		RecallMicro:    micro.recall(),
		F1Micro:        micro.f1(),
		PerGenreF1:     perGenre,
	}
	if k := float64(len(perLabel)); k > 0 {
		m.PrecisionMacro = sumP / k
		m.RecallMacro = sumR / k
		m.F1Macro = sumF / k
	}
	return m, nil
}

package model

import (
	"fmt"
	"slices"

	"genreclf/internal/labels"
	"genreclf/internal/textfeat"
)

// Pipeline is the vectorizer chained with the one-vs-rest classifier. Exported
// fields are the fitted state.
type Pipeline struct {
	Vectorizer *textfeat.Vectorizer
	Classifier OneVsRest
	Config     Config
	// Labels names the label columns in order, when known.
	Labels []string
}

var (
	_ Model  = (*Pipeline)(nil)
	_ Scorer = (*Pipeline)(nil)
)

// Fit learns the vocabulary and one estimator per label column. Neither texts
// nor y is modified.
func (p *Pipeline) Fit(texts []string, y labels.Matrix) error {
	if len(texts) != y.Rows {
		return fmt.Errorf("dimension mismatch: %d texts, %d label rows", len(texts), y.Rows)
	}
	if y.Cols == 0 {
		return fmt.Errorf("label matrix has no columns")
	}
	if p.Vectorizer == nil {
		return fmt.Errorf("pipeline has no vectorizer")
	}
	trainer, err := newTrainer(p.Config)
	if err != nil {
		return err
	}
	x, err := p.Vectorizer.FitTransform(texts)
	if err != nil {
		return err
	}
	return p.Classifier.fit(trainer, x, p.Vectorizer.NumFeatures(), y)
}

// Fitted reports whether Fit has completed.
func (p *Pipeline) Fitted() bool {
	return p.Vectorizer != nil && p.Vectorizer.Fitted() && len(p.Classifier.Estimators) > 0
}

// NumLabels is the number of label columns the pipeline predicts.
func (p *Pipeline) NumLabels() int {
	return len(p.Classifier.Estimators)
}

// DecisionScores returns one row of per-label scores per text.
func (p *Pipeline) DecisionScores(texts []string) ([][]float64, error) {
	if !p.Fitted() {
		return nil, fmt.Errorf("pipeline is not fitted")
	}
	x, err := p.Vectorizer.Transform(texts)
	if err != nil {
		return nil, err
	}
	return p.Classifier.scores(x), nil
}

// Predict returns hard labels: a label is set when its score is positive.
func (p *Pipeline) Predict(texts []string) (labels.Matrix, error) {
	scores, err := p.DecisionScores(texts)
	if err != nil {
		return labels.Matrix{}, err
	}
	out := labels.NewMatrix(len(texts), p.NumLabels())
	for i, row := range scores {
		for j, s := range row {
			if s > 0 {
				out.Set(i, j, 1)
			}
		}
	}
	return out, nil
}

// LabelScore pairs a label name with its probability-like score.
type LabelScore struct {
	Label string
	Score float64
}

// Rank scores one text and returns every label with its sigmoid score, highest
// first. Labels are named from p.Labels when set.
func (p *Pipeline) Rank(text string) ([]LabelScore, error) {
	scores, err := p.DecisionScores([]string{text})
	if err != nil {
		return nil, err
	}
	out := make([]LabelScore, len(scores[0]))
	for j, s := range scores[0] {
		name := fmt.Sprintf("label_%d", j)
		if j < len(p.Labels) {
			name = p.Labels[j]
		}
		out[j] = LabelScore{Label: name, Score: Sigmoid(s)}
	}
	slices.SortStableFunc(out, func(a, b LabelScore) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

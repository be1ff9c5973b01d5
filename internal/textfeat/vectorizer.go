package textfeat

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ErrEmptyVocabulary is returned by Fit when no term survives pruning.
var ErrEmptyVocabulary = errors.New("empty vocabulary after pruning")

// Options configures a Vectorizer.
type Options struct {
	MaxFeatures int
	MinDF       int
	NGramMin    int
	NGramMax    int
}

// DefaultOptions returns unigram+bigram settings with the given bounds.
func DefaultOptions(maxFeatures, minDF int) Options {
	return Options{MaxFeatures: maxFeatures, MinDF: minDF, NGramMin: 1, NGramMax: 2}
}

// Validate rejects unusable bounds.
func (o Options) Validate() error {
	if o.MaxFeatures <= 0 {
		return fmt.Errorf("max_features must be positive, got %d", o.MaxFeatures)
	}
	if o.MinDF < 1 {
		return fmt.Errorf("min_df must be >= 1, got %d", o.MinDF)
	}
	if o.NGramMin < 1 || o.NGramMax < o.NGramMin {
		return fmt.Errorf("invalid n-gram range (%d, %d)", o.NGramMin, o.NGramMax)
	}
	return nil
}

// SparseVector holds the non-zero entries of one row, indices ascending.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Dot returns the inner product with a dense weight vector.
func (v SparseVector) Dot(w []float64) float64 {
	var sum float64
	for k, idx := range v.Indices {
		sum += v.Values[k] * w[idx]
	}
	return sum
}

// Vectorizer is a TF-IDF feature extractor. Exported fields are the fitted
// state and survive gob encoding.
type Vectorizer struct {
	Options Options
	Terms   []string
	IDF     []float64

	index map[string]int
}

// NewVectorizer returns an unfitted vectorizer.
func NewVectorizer(opts Options) (*Vectorizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Vectorizer{Options: opts}, nil
}

// Fitted reports whether Fit has completed.
func (v *Vectorizer) Fitted() bool {
	return len(v.Terms) > 0 && len(v.IDF) == len(v.Terms)
}

// NumFeatures is the vocabulary size.
func (v *Vectorizer) NumFeatures() int {
	return len(v.Terms)
}

func (v *Vectorizer) analyze(doc string) []string {
	return NGrams(Tokenize(doc), v.Options.NGramMin, v.Options.NGramMax)
}

type termStat struct {
	term string
	df   int
	tf   int
}

// Fit learns the vocabulary and IDF weights from docs.
//
// Terms with document frequency below MinDF are dropped; if more than
// MaxFeatures remain, the most frequent by corpus term count are kept, ties
// going to the lexicographically smaller term. The final vocabulary is sorted.
func (v *Vectorizer) Fit(docs []string) error {
	if err := v.Options.Validate(); err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("fit vectorizer: no documents")
	}
	stats := make(map[string]*termStat)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range v.analyze(doc) {
			st, ok := stats[term]
			if !ok {
				st = &termStat{term: term}
				stats[term] = st
			}
			st.tf++
			if _, dup := seen[term]; !dup {
				seen[term] = struct{}{}
				st.df++
			}
		}
	}

	kept := make([]*termStat, 0, len(stats))
	for _, st := range stats {
		if st.df >= v.Options.MinDF {
			kept = append(kept, st)
		}
	}
	if len(kept) == 0 {
		return fmt.Errorf("fit vectorizer on %d documents (min_df=%d): %w", len(docs), v.Options.MinDF, ErrEmptyVocabulary)
	}
	if len(kept) > v.Options.MaxFeatures {
		slices.SortFunc(kept, func(a, b *termStat) int {
			if a.tf != b.tf {
				return b.tf - a.tf
			}
			return strings.Compare(a.term, b.term)
		})
		kept = kept[:v.Options.MaxFeatures]
	}
	slices.SortFunc(kept, func(a, b *termStat) int { return strings.Compare(a.term, b.term) })

	n := float64(len(docs))
	v.Terms = make([]string, len(kept))
	v.IDF = make([]float64, len(kept))
	for i, st := range kept {
		v.Terms[i] = st.term
		v.IDF[i] = math.Log((1+n)/(1+float64(st.df))) + 1
	}
	v.index = nil
	return nil
}

func (v *Vectorizer) lookup() map[string]int {
	if v.index == nil {
		v.index = make(map[string]int, len(v.Terms))
		for i, term := range v.Terms {
			v.index[term] = i
		}
	}
	return v.index
}

// Transform maps each document to an L2-normalised TF-IDF vector. Terms
// outside the vocabulary are ignored; a document with none yields an empty
// vector.
func (v *Vectorizer) Transform(docs []string) ([]SparseVector, error) {
	if !v.Fitted() {
		return nil, fmt.Errorf("transform: vectorizer is not fitted")
	}
	index := v.lookup()
	out := make([]SparseVector, len(docs))
	for d, doc := range docs {
		counts := make(map[int]int)
		for _, term := range v.analyze(doc) {
			if idx, ok := index[term]; ok {
				counts[idx]++
			}
		}
		vec := SparseVector{
			Indices: make([]int, 0, len(counts)),
			Values:  make([]float64, 0, len(counts)),
		}
		for idx := range counts {
			vec.Indices = append(vec.Indices, idx)
		}
		slices.Sort(vec.Indices)
		for _, idx := range vec.Indices {
			vec.Values = append(vec.Values, float64(counts[idx])*v.IDF[idx])
		}
		if norm := floats.Norm(vec.Values, 2); norm > 0 {
			floats.Scale(1/norm, vec.Values)
		}
		out[d] = vec
	}
	return out, nil
}

// FitTransform fits on docs and returns their vectors.
func (v *Vectorizer) FitTransform(docs []string) ([]SparseVector, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.Transform(docs)
}

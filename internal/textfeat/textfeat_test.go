package textfeat_test

import (
	"errors"
	"math"
	"slices"
	"testing"

	"genreclf/internal/textfeat"
)

func TestTokenizeLowercasesAndDropsShortTokens(t *testing.T) {
	got := textfeat.Tokenize("A Soldier fights, in a BRUTAL war! x9 Ünïcode café")
	want := []string{"soldier", "fights", "in", "brutal", "war", "x9", "ünïcode", "café"}
	if !slices.Equal(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeNormalizesComposition(t *testing.T) {
	composed := textfeat.Tokenize("caf\u00e9")
	decomposed := textfeat.Tokenize("cafe\u0301")
	if !slices.Equal(composed, decomposed) {
		t.Fatalf("expected NFC-equal tokens, got %v vs %v", composed, decomposed)
	}
}

func TestNGrams(t *testing.T) {
	got := textfeat.NGrams([]string{"haunted", "house", "party"}, 1, 2)
	want := []string{"haunted", "house", "party", "haunted house", "house party"}
	if !slices.Equal(got, want) {
		t.Fatalf("NGrams = %v, want %v", got, want)
	}
}

func TestFitBuildsSortedVocabularyWithSmoothIDF(t *testing.T) {
	v, err := textfeat.NewVectorizer(textfeat.DefaultOptions(100, 1))
	if err != nil {
		t.Fatal(err)
	}
	docs := []string{"red apple", "green apple", "red car"}
	if err := v.Fit(docs); err != nil {
		t.Fatalf("Fit returned error: %v", err)
	}
	want := []string{"apple", "car", "green", "green apple", "red", "red apple", "red car"}
	if !slices.Equal(v.Terms, want) {
		t.Fatalf("Terms = %v, want %v", v.Terms, want)
	}
	apple := slices.Index(v.Terms, "apple")
	car := slices.Index(v.Terms, "car")
	if math.Abs(v.IDF[apple]-(math.Log(4.0/3.0)+1)) > 1e-12 {
		t.Fatalf("idf(apple) = %v", v.IDF[apple])
	}
	if math.Abs(v.IDF[car]-(math.Log(4.0/2.0)+1)) > 1e-12 {
		t.Fatalf("idf(car) = %v", v.IDF[car])
	}
}

func TestFitMinDFAndMaxFeatures(t *testing.T) {
	docs := []string{"alpha beta", "alpha gamma", "alpha beta delta"}
	v, _ := textfeat.NewVectorizer(textfeat.Options{MaxFeatures: 100, MinDF: 2, NGramMin: 1, NGramMax: 1})
	if err := v.Fit(docs); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(v.Terms, []string{"alpha", "beta"}) {
		t.Fatalf("min_df pruning gave %v", v.Terms)
	}

	capped, _ := textfeat.NewVectorizer(textfeat.Options{MaxFeatures: 2, MinDF: 1, NGramMin: 1, NGramMax: 1})
	if err := capped.Fit(docs); err != nil {
		t.Fatal(err)
	}
	// alpha (3) and beta (2) beat delta and gamma (1 each).
	if !slices.Equal(capped.Terms, []string{"alpha", "beta"}) {
		t.Fatalf("max_features pruning gave %v", capped.Terms)
	}

	tie, _ := textfeat.NewVectorizer(textfeat.Options{MaxFeatures: 3, MinDF: 1, NGramMin: 1, NGramMax: 1})
	if err := tie.Fit(docs); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(tie.Terms, []string{"alpha", "beta", "delta"}) {
		t.Fatalf("tie break gave %v", tie.Terms)
	}
}

func TestFitEmptyVocabulary(t *testing.T) {
	v, _ := textfeat.NewVectorizer(textfeat.DefaultOptions(10, 2))
	err := v.Fit([]string{"one", "two"})
	if !errors.Is(err, textfeat.ErrEmptyVocabulary) {
		t.Fatalf("expected ErrEmptyVocabulary, got %v", err)
	}
}

func TestTransformL2Normalised(t *testing.T) {
	v, _ := textfeat.NewVectorizer(textfeat.DefaultOptions(100, 1))
	vecs, err := v.FitTransform([]string{"space ship space", "love story", "space love"})
	if err != nil {
		t.Fatal(err)
	}
	for i, vec := range vecs {
		if !slices.IsSorted(vec.Indices) {
			t.Fatalf("row %d indices not sorted: %v", i, vec.Indices)
		}
		var norm float64
		for _, x := range vec.Values {
			norm += x * x
		}
		if math.Abs(norm-1) > 1e-9 {
			t.Fatalf("row %d norm^2 = %v", i, norm)
		}
	}

	unseen, err := v.Transform([]string{"zz qq"})
	if err != nil {
		t.Fatal(err)
	}
	if len(unseen[0].Indices) != 0 {
		t.Fatalf("expected empty vector for unseen terms, got %v", unseen[0])
	}
}

func TestTransformRequiresFit(t *testing.T) {
	v, _ := textfeat.NewVectorizer(textfeat.DefaultOptions(10, 1))
	if _, err := v.Transform([]string{"x"}); err == nil {
		t.Fatal("expected error before fit")
	}
}

func TestOptionsValidate(t *testing.T) {
	if _, err := textfeat.NewVectorizer(textfeat.DefaultOptions(0, 1)); err == nil {
		t.Fatal("expected max_features error")
	}
	if _, err := textfeat.NewVectorizer(textfeat.DefaultOptions(10, 0)); err == nil {
		t.Fatal("expected min_df error")
	}
}

func TestSparseDot(t *testing.T) {
	vec := textfeat.SparseVector{Indices: []int{0, 2}, Values: []float64{0.5, 2}}
	if got := vec.Dot([]float64{2, 100, 3}); got != 7 {
		t.Fatalf("Dot = %v, want 7", got)
	}
}

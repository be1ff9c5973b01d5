package evaluation_test

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"genreclf/internal/evaluation"
	"genreclf/internal/labels"
)

func mustMatrix(t *testing.T, rows [][]uint8) labels.Matrix {
	t.Helper()
	m, err := labels.FromRows(rows)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-12 }

func TestComputeMicroAndMacro(t *testing.T) {
	truth := mustMatrix(t, [][]uint8{
		{1, 0, 1},
		{0, 1, 0},
		{1, 1, 0},
	})
	pred := mustMatrix(t, [][]uint8{
		{1, 0, 0},
		{0, 1, 1},
		{0, 1, 0},
	})
	m, err := evaluation.Compute(truth, pred, []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	// A: tp1 fn1 -> p1 r.5 f.667; B: tp2 -> 1/1/1; C: fp1 fn1 -> 0/0/0.
	if !near(m.PrecisionMicro, 3.0/4.0) || !near(m.RecallMicro, 3.0/5.0) {
		t.Fatalf("micro precision/recall = %v/%v", m.PrecisionMicro, m.RecallMicro)
	}
	if !near(m.F1Micro, 6.0/9.0) {
		t.Fatalf("f1_micro = %v", m.F1Micro)
	}
	if !near(m.PrecisionMacro, 2.0/3.0) || !near(m.RecallMacro, 0.5) {
		t.Fatalf("macro precision/recall = %v/%v", m.PrecisionMacro, m.RecallMacro)
	}
	if !near(m.F1Macro, (2.0/3.0+1)/3) {
		t.Fatalf("f1_macro = %v", m.F1Macro)
	}
	if !near(m.PerGenreF1["A"], 2.0/3.0) || m.PerGenreF1["B"] != 1 || m.PerGenreF1["C"] != 0 {
		t.Fatalf("per genre = %v", m.PerGenreF1)
	}
}

func TestComputeZeroDivisionIsZero(t *testing.T) {
	truth := mustMatrix(t, [][]uint8{{0, 0}, {0, 0}})
	pred := mustMatrix(t, [][]uint8{{0, 0}, {0, 0}})
	m, err := evaluation.Compute(truth, pred, []string{"X", "Y"})
	if err != nil {
		t.Fatal(err)
	}
	for name, v := range map[string]float64{
		"f1_micro": m.F1Micro, "f1_macro": m.F1Macro, "precision_micro": m.PrecisionMicro,
		"recall_macro": m.RecallMacro,
	} {
		if v != 0 || math.IsNaN(v) {
			t.Fatalf("%s = %v, want 0", name, v)
		}
	}
	if len(m.PerGenreF1) != 2 {
		t.Fatalf("expected an entry per label, got %v", m.PerGenreF1)
	}
}

func TestComputeValuesInUnitInterval(t *testing.T) {
	truth := mustMatrix(t, [][]uint8{{1, 1, 0, 0}, {0, 1, 1, 0}, {1, 0, 0, 1}})
	pred := mustMatrix(t, [][]uint8{{1, 1, 1, 1}, {0, 0, 0, 0}, {1, 0, 1, 0}})
	m, err := evaluation.Compute(truth, pred, []string{"a", "b", "c", "d"})
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"f1_micro", "f1_macro", "precision_micro", "recall_micro", "precision_macro", "recall_macro"} {
		v, ok := m.Value(name)
		if !ok || v < 0 || v > 1 {
			t.Fatalf("%s = %v (ok=%v)", name, v, ok)
		}
	}
	for name, v := range m.PerGenreF1 {
		if v < 0 || v > 1 {
			t.Fatalf("per genre %s = %v", name, v)
		}
	}
	if _, ok := m.Value("accuracy"); ok {
		t.Fatal("expected unknown metric to report false")
	}
}

func TestComputeShapeMismatch(t *testing.T) {
	a := mustMatrix(t, [][]uint8{{1, 0}})
	b := mustMatrix(t, [][]uint8{{1, 0, 0}})
	if _, err := evaluation.Compute(a, b, []string{"x", "y"}); err == nil {
		t.Fatal("expected shape mismatch")
	}
	if _, err := evaluation.Compute(a, a, []string{"x"}); err == nil {
		t.Fatal("expected name count mismatch")
	}
}

func TestMetricsJSONKeys(t *testing.T) {
	m := evaluation.Metrics{F1Micro: 0.5, NTrain: 3, NTest: 1, Threshold: 0.25, PerGenreF1: map[string]float64{"Drama": 1}}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"f1_micro", "f1_macro", "precision_micro", "recall_micro", "precision_macro", "recall_macro", "n_train", "n_test", "threshold", "per_genre_f1"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("missing key %q in %s", key, data)
		}
	}
	var back evaluation.Metrics
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back, m) {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, m)
	}
}

// Package split partitions paired texts and label rows into train and test sets.
package split

import (
	"fmt"
	"math"
	"math/rand/v2"

	"genreclf/internal/labels"
	"genreclf/internal/services"
)

// Partition is one seeded train/test split. Row i of TrainLabels belongs to
// TrainTexts[i]; likewise for the test side.
type Partition struct {
	TrainTexts  []string
	TestTexts   []string
	TrainLabels labels.Matrix
	TestLabels  labels.Matrix
	// TrainIndex and TestIndex hold the source row of each output row.
	TrainIndex []int
	TestIndex  []int
}

// HoldoutCount returns ceil(testSize*n), the number of held-out rows.
func HoldoutCount(n int, testSize float64) int {
	return int(math.Ceil(testSize * float64(n)))
}

// Split shuffles row indices with a PCG generator seeded from seed and holds
// out the first ceil(testSize*n) of them. The same seed, size, and testSize
// always give the same partition.
func Split(texts []string, y labels.Matrix, testSize float64, seed int64) (Partition, error) {
	n := len(texts)
	if y.Rows != n {
		return Partition{}, services.Wrap(services.ErrConfiguration, "split", "validate",
			fmt.Sprintf("%d texts but %d label rows", n, y.Rows), nil)
	}
	if !(testSize > 0 && testSize < 1) {
		return Partition{}, services.Wrap(services.ErrConfiguration, "split", "validate",
			fmt.Sprintf("test_size %v outside (0, 1)", testSize), nil)
	}
	if n < 2 {
		return Partition{}, services.Wrap(services.ErrConfiguration, "split", "validate",
			fmt.Sprintf("need at least 2 rows to split, got %d", n), nil)
	}
	nTest := HoldoutCount(n, testSize)
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return Partition{}, services.Wrap(services.ErrConfiguration, "split", "validate",
			fmt.Sprintf("test_size %v leaves an empty side for %d rows", testSize, n), nil)
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	perm := rng.Perm(n)
	testIdx := perm[:nTest]
	trainIdx := perm[nTest:]

	return Partition{
		TrainTexts:  pick(texts, trainIdx),
		TestTexts:   pick(texts, testIdx),
		TrainLabels: y.SelectRows(trainIdx),
		TestLabels:  y.SelectRows(testIdx),
		TrainIndex:  append([]int(nil), trainIdx...),
		TestIndex:   append([]int(nil), testIdx...),
	}, nil
}

func pick(texts []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, src := range idx {
		out[i] = texts[src]
	}
	return out
}

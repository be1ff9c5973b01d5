package testsupport

import (
	"fmt"
	"testing"

	"genreclf/internal/dataset"
)

// Genre ids from the default TMDB table used by the synthetic corpus.
const (
	GenreAction  = 28
	GenreComedy  = 35
	GenreDrama   = 18
	GenreHorror  = 27
	GenreRomance = 10749
)

var syntheticPlots = []struct {
	overview string
	genres   []int
}{
	{"An elite soldier fights explosive battles against a ruthless warlord.", []int{GenreAction}},
	{"A clumsy waiter stumbles into hilarious mishaps at a wedding party.", []int{GenreComedy}},
	{"A grieving mother confronts loss and family secrets after the funeral.", []int{GenreDrama}},
	{"A haunted house terrifies a family as the ghost hunts them at night.", []int{GenreHorror}},
	{"Two strangers fall in love during a summer romance in Paris.", []int{GenreRomance}},
	{"A rogue agent chases explosive car battles through the city.", []int{GenreAction, GenreDrama}},
	{"A hilarious road trip turns into a wedding full of mishaps and love.", []int{GenreComedy, GenreRomance}},
	{"The ghost of a murdered bride hunts the family at night.", []int{GenreHorror, GenreDrama}},
}

// SyntheticRecords returns n deterministic movie records cycling through a
// small corpus with distinct vocabulary per genre.
func SyntheticRecords(n int) []dataset.MovieRecord {
	records := make([]dataset.MovieRecord, n)
	for i := range records {
		plot := syntheticPlots[i%len(syntheticPlots)]
		records[i] = dataset.MovieRecord{
			ID:       int64(i + 1),
			Title:    fmt.Sprintf("Synthetic %d", i+1),
			Overview: plot.overview,
			GenreIDs: append([]int(nil), plot.genres...),
			Language: "en",
		}
	}
	return records
}

// WriteDataset writes records to path, failing the test on error.
func WriteDataset(t testing.TB, path string, records []dataset.MovieRecord) {
	t.Helper()
	if err := dataset.Write(path, records); err != nil {
		t.Fatalf("write dataset %s: %v", path, err)
	}
}

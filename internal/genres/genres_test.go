package genres_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"genreclf/internal/genres"
)

func TestDefaultVocabularySortedAndUnique(t *testing.T) {
	catalog := genres.Default()
	vocab := catalog.Vocabulary()
	if len(vocab) != 19 {
		t.Fatalf("expected 19 genres, got %d", len(vocab))
	}
	if !slices.IsSorted(vocab) {
		t.Fatalf("vocabulary not sorted: %v", vocab)
	}
	if len(slices.Compact(slices.Clone(vocab))) != len(vocab) {
		t.Fatalf("vocabulary has duplicates: %v", vocab)
	}
	if vocab[0] != "Action" || vocab[len(vocab)-1] != "Western" {
		t.Fatalf("unexpected vocabulary bounds: %v", vocab)
	}
}

func TestCanonicalName(t *testing.T) {
	catalog := genres.Default()
	if name, ok := catalog.CanonicalName(878); !ok || name != "Science Fiction" {
		t.Fatalf("CanonicalName(878) = %q, %v", name, ok)
	}
	if _, ok := catalog.CanonicalName(999999); ok {
		t.Fatal("expected unknown id to report false")
	}
}

func TestNewDeduplicatesSharedNames(t *testing.T) {
	catalog := genres.New(map[int]string{1: "Drama", 2: "Drama", 3: "Comedy", 4: "  "})
	if got := catalog.Vocabulary(); !slices.Equal(got, []string{"Comedy", "Drama"}) {
		t.Fatalf("unexpected vocabulary: %v", got)
	}
	if _, ok := catalog.CanonicalName(4); ok {
		t.Fatal("expected blank name to be dropped")
	}
	if col, ok := catalog.Column("Drama"); !ok || col != 1 {
		t.Fatalf("Column(Drama) = %d, %v", col, ok)
	}
}

func TestVocabularyReturnsCopy(t *testing.T) {
	catalog := genres.Default()
	vocab := catalog.Vocabulary()
	vocab[0] = "Mutated"
	if catalog.Vocabulary()[0] != "Action" {
		t.Fatal("catalog vocabulary was mutated through returned slice")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genres.json")
	if err := os.WriteFile(path, []byte(`{"1": "Noir", "2": "Heist"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	catalog, err := genres.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if !slices.Equal(catalog.Vocabulary(), []string{"Heist", "Noir"}) {
		t.Fatalf("unexpected vocabulary: %v", catalog.Vocabulary())
	}
	if !slices.Equal(catalog.IDs(), []int{1, 2}) {
		t.Fatalf("unexpected ids: %v", catalog.IDs())
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"x": "Noir"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := genres.LoadFile(bad); err == nil {
		t.Fatal("expected error for non-integer key")
	}
}

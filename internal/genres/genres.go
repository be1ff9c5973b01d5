package genres

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// tmdbMovieGenres is the TMDB movie genre table.
var tmdbMovieGenres = map[int]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
}

// Catalog is an immutable mapping from provider genre id to canonical name.
type Catalog struct {
	names      map[int]string
	vocabulary []string
	index      map[string]int
}

// New builds a catalog from an id→name table. Blank names are ignored; several
// ids may share a name.
func New(table map[int]string) Catalog {
	names := make(map[int]string, len(table))
	for id, name := range table {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		names[id] = name
	}
	vocabulary := slices.Sorted(maps.Values(names))
	vocabulary = slices.Compact(vocabulary)
	index := make(map[string]int, len(vocabulary))
	for i, name := range vocabulary {
		index[name] = i
	}
	return Catalog{names: names, vocabulary: vocabulary, index: index}
}

// Default returns the TMDB movie genre catalog.
func Default() Catalog {
	return New(tmdbMovieGenres)
}

// LoadFile reads a JSON object of the form {"28": "Action"} and builds a catalog.
func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read genre table: %w", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return Catalog{}, fmt.Errorf("decode genre table: %w", err)
	}
	table := make(map[int]string, len(raw))
	for key, name := range raw {
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return Catalog{}, fmt.Errorf("genre table key %q is not an integer id", key)
		}
		table[id] = name
	}
	if len(table) == 0 {
		return Catalog{}, fmt.Errorf("genre table %s is empty", path)
	}
	return New(table), nil
}

// CanonicalName returns the name registered for id.
func (c Catalog) CanonicalName(id int) (string, bool) {
	name, ok := c.names[id]
	return name, ok
}

// Vocabulary returns the sorted, de-duplicated genre names. The returned slice
// is a copy.
func (c Catalog) Vocabulary() []string {
	return slices.Clone(c.vocabulary)
}

// Column returns the vocabulary position of name.
func (c Catalog) Column(name string) (int, bool) {
	idx, ok := c.index[name]
	return idx, ok
}

// Len reports the vocabulary size.
func (c Catalog) Len() int {
	return len(c.vocabulary)
}

// IDs returns every registered provider id in ascending order.
func (c Catalog) IDs() []int {
	return slices.Sorted(maps.Keys(c.names))
}

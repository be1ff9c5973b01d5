package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseGenreIDs decodes a list literal such as "[28, 12]" or "(28,)" into ids.
// Empty cells and the null spellings pandas writes ("nan", "None") decode to
// an empty list.
func ParseGenreIDs(cell string) ([]int, error) {
	trimmed := strings.TrimSpace(cell)
	switch strings.ToLower(trimmed) {
	case "", "nan", "none", "null", "[]", "()":
		return []int{}, nil
	}
	first, last := trimmed[0], trimmed[len(trimmed)-1]
	if !(first == '[' && last == ']') && !(first == '(' && last == ')') {
		return nil, fmt.Errorf("genre_ids %q is not a list literal", cell)
	}
	body := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	if body == "" {
		return []int{}, nil
	}
	parts := strings.Split(body, ",")
	ids := make([]int, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			if i == len(parts)-1 {
				continue
			}
			return nil, fmt.Errorf("genre_ids %q has an empty element", cell)
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("genre_ids %q element %q is not an integer", cell, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FormatGenreIDs encodes ids as the list literal ParseGenreIDs reads.
func FormatGenreIDs(ids []int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(id))
	}
	b.WriteByte(']')
	return b.String()
}

// Package labels builds multi-hot label matrices over a genre vocabulary.
package labels

import (
	"fmt"

	"genreclf/internal/dataset"
	"genreclf/internal/genres"
)

// Matrix is a dense row-major 0/1 matrix.
type Matrix struct {
	Rows int
	Cols int
	data []uint8
}

// NewMatrix allocates a zeroed rows×cols matrix.
func NewMatrix(rows, cols int) Matrix {
	return Matrix{Rows: rows, Cols: cols, data: make([]uint8, rows*cols)}
}

// FromRows copies rows into a matrix. Every row must have the same width.
func FromRows(rows [][]uint8) (Matrix, error) {
	if len(rows) == 0 {
		return Matrix{}, nil
	}
	cols := len(rows[0])
	m := NewMatrix(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return Matrix{}, fmt.Errorf("row %d has %d columns, want %d", i, len(row), cols)
		}
		for j, v := range row {
			if v > 1 {
				return Matrix{}, fmt.Errorf("row %d column %d holds %d, want 0 or 1", i, j, v)
			}
		}
		copy(m.data[i*cols:], row)
	}
	return m, nil
}

// At returns the cell at row i, column j.
func (m Matrix) At(i, j int) uint8 {
	return m.data[i*m.Cols+j]
}

// Set assigns the cell at row i, column j.
func (m Matrix) Set(i, j int, v uint8) {
	m.data[i*m.Cols+j] = v
}

// Row returns a copy of row i.
func (m Matrix) Row(i int) []uint8 {
	out := make([]uint8, m.Cols)
	copy(out, m.data[i*m.Cols:(i+1)*m.Cols])
	return out
}

// Column returns a copy of column j.
func (m Matrix) Column(j int) []uint8 {
	out := make([]uint8, m.Rows)
	for i := range m.Rows {
		out[i] = m.data[i*m.Cols+j]
	}
	return out
}

// SelectRows returns a new matrix holding the given rows in order.
func (m Matrix) SelectRows(indices []int) Matrix {
	out := NewMatrix(len(indices), m.Cols)
	for dst, src := range indices {
		copy(out.data[dst*m.Cols:(dst+1)*m.Cols], m.data[src*m.Cols:(src+1)*m.Cols])
	}
	return out
}

// RowSum counts the set bits in row i.
func (m Matrix) RowSum(i int) int {
	total := 0
	for _, v := range m.data[i*m.Cols : (i+1)*m.Cols] {
		total += int(v)
	}
	return total
}

// ColumnSums counts the set bits per column.
func (m Matrix) ColumnSums() []int {
	sums := make([]int, m.Cols)
	for i := range m.Rows {
		for j := range m.Cols {
			sums[j] += int(m.data[i*m.Cols+j])
		}
	}
	return sums
}

// Equal reports whether both matrices have the same shape and cells.
func (m Matrix) Equal(other Matrix) bool {
	if m.Rows != other.Rows || m.Cols != other.Cols {
		return false
	}
	for i := range m.data {
		if m.data[i] != other.data[i] {
			return false
		}
	}
	return true
}

// Build converts each record's genre ids into a multi-hot row over the catalog
// vocabulary. Ids with no catalog entry are skipped. Rows follow record order
// and columns follow catalog.Vocabulary().
func Build(records []dataset.MovieRecord, catalog genres.Catalog) (Matrix, []string) {
	vocabulary := catalog.Vocabulary()
	m := NewMatrix(len(records), len(vocabulary))
	for i, rec := range records {
		for _, id := range rec.GenreIDs {
			name, ok := catalog.CanonicalName(id)
			if !ok {
				continue
			}
			j, ok := catalog.Column(name)
			if !ok {
				continue
			}
			m.Set(i, j, 1)
		}
	}
	return m, vocabulary
}

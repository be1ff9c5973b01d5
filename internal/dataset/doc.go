// Package dataset reads and writes tabular movie records.
//
// CSV files (with a header row) and JSON-lines files are supported. The
// genre_ids column may hold a list literal such as "[28, 12]" or, in JSON
// lines, a native array; both decode to []int. Only overview and genre_ids
// are required. The remaining catalog columns are carried through for the
// fetch stage and never participate in training.
package dataset

// Package genres maps provider genre identifiers to canonical genre names.
//
// A Catalog is an immutable value built once and handed to every component
// that needs it. Its vocabulary is the sorted, de-duplicated list of names and
// fixes the column order of every label matrix derived from it.
package genres

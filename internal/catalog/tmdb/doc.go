// Package tmdb is a small client for the TMDB v3 movie endpoints used to
// build the training catalog: category lists, genre discovery, and the genre
// table itself.
package tmdb

// Package catalog builds the raw training table from TMDB.
//
// Two fetch modes are supported. The categories mode pages through movie
// lists such as popular and top_rated. The genres mode walks every genre in
// the catalog with discover queries so that rare genres are represented, and
// tags each row with the genre that produced it. Both modes deduplicate by
// movie id (first occurrence wins) and keep only rows in the configured
// original language with a non-empty overview.
package catalog

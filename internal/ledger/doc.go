// Package ledger records every pipeline run in a SQLite database.
//
// A run row is inserted when a command starts and updated once it finishes,
// so an interrupted process leaves a row in the running state that `genreclf
// runs` can surface. Rows carry the dataset, split sizes, headline metrics,
// and the publish gate decision with the prior metric it compared against.
package ledger

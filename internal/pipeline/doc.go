// Package pipeline chains the training stages into a single run.
//
// A run loads the dataset, builds the label matrix against the genre
// catalog, splits, fits and evaluates the model, writes the local artifact,
// and optionally passes it through the publish gate. Every run is recorded in
// the ledger and failures are pushed to the notification service. An
// exclusive lock on the artifact directory makes a second concurrent run on
// the same host fail fast with ErrLocked instead of racing on the artifact
// files.
package pipeline

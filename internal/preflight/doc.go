// Package preflight provides readiness checks for the filesystem paths and
// external services genreclf depends on.
//
// The CLI "genreclf status" command renders RunAll, and the pipeline calls
// CheckDirectoryAccess on the artifact directory before training so a
// read-only mount fails before minutes of fitting are spent.
package preflight

// Package registry stores published model artifacts as opaque blobs keyed by
// logical name.
//
// The publish gate only needs two operations, Fetch and Put, so every backend
// (a local directory, an HTTP blob endpoint, or a SQLite table) implements the
// small Registry interface. A missing key is reported as ErrNotFound so
// callers can tell a first publish apart from an outage.
package registry

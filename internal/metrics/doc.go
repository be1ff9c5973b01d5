// Package metrics exports run outcomes in the Prometheus text format.
//
// genreclf is a batch tool, so nothing is scraped directly. After every run
// the pipeline rewrites a .prom file for node_exporter's textfile collector
// with gauges describing the latest run and the ledger totals.
package metrics

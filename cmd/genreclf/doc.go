// Package main hosts the genreclf CLI entrypoint and command graph.
//
// The Cobra command tree covers the whole training lifecycle: fetching a
// catalog snapshot from TMDB, training and evaluating the genre model,
// publishing it through the metric gate, scoring ad-hoc overviews, and
// inspecting run history and environment health. Configuration is resolved
// lazily so scaffolding commands such as `config init` work before a config
// file exists.
//
// Heavy lifting lives in the internal packages; commands here only wire
// configuration into them and render results.
package main

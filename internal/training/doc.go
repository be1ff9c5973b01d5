// Package training fits a genre model, evaluates it on held-out rows, and
// writes the model and metadata artifacts.
//
// Run is strictly ordered: fit, predict under the configured policy, compute
// metrics, then persist. A failure at any step before persistence leaves the
// previous artifacts untouched.
package training

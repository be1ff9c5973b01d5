// Package publish implements the metric gate in front of the model registry.
//
// A freshly trained artifact is uploaded only when its comparison metric is
// strictly greater than the metric recorded in the currently published
// metadata. A missing prior record means first publish. An unreachable or
// unreadable prior is logged as prior_metric_unavailable and, unless strict
// mode is enabled, also treated as first publish.
package publish

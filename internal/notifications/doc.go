// Package notifications pushes pipeline outcomes to ntfy.
//
// A configured topic receives a message when a model is published, when the
// publish gate skips a model (opt-in), and when a run fails. Without a topic
// NewService returns a no-op implementation, so callers never need to check
// whether notifications are enabled.
package notifications

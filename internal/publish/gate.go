package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"genreclf/internal/logging"
	"genreclf/internal/services"
	"genreclf/internal/services/registry"
	"genreclf/internal/training"
)

// Decision is the outcome of the publish gate.
type Decision string

const (
	Published Decision = "published"
	Skipped   Decision = "skipped"
)

// PriorState describes what the gate found in the registry.
type PriorState string

const (
	PriorFound       PriorState = "found"
	PriorAbsent      PriorState = "absent"
	PriorUnavailable PriorState = "unavailable"
)

// Options configures the gate.
type Options struct {
	Metric      string
	ModelKey    string
	MetaKey     string
	StrictPrior bool
}

// Outcome reports the gate decision and the values it compared.
type Outcome struct {
	Decision   Decision
	Metric     string
	NewValue   float64
	PriorValue float64
	PriorState PriorState
}

// HasPrior reports whether a prior metric took part in the comparison.
func (o Outcome) HasPrior() bool {
	return o.PriorState == PriorFound
}

// Gate compares new artifacts against the published one.
type Gate struct {
	registry registry.Registry
	opts     Options
	logger   *slog.Logger
}

// NewGate builds a gate over reg.
func NewGate(reg registry.Registry, opts Options, logger *slog.Logger) *Gate {
	if opts.Metric == "" {
		opts.Metric = "f1_micro"
	}
	if opts.ModelKey == "" {
		opts.ModelKey = "genre_model"
	}
	if opts.MetaKey == "" {
		opts.MetaKey = "genre_meta"
	}
	return &Gate{
		registry: reg,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "publish"),
	}
}

// Metric names the metric the gate compares.
func (g *Gate) Metric() string {
	return g.opts.Metric
}

// MaybePublish uploads artifact when newMetric strictly improves on the
// published metric, or when nothing has been published yet.
func (g *Gate) MaybePublish(ctx context.Context, newMetric float64, artifact training.Artifact) (Outcome, error) {
	if g.registry == nil {
		return Outcome{}, services.Wrap(services.ErrConfiguration, "publish", "gate", "registry is nil", nil)
	}
	ctx = services.WithStage(ctx, "publish")
	logger := logging.WithContext(ctx, g.logger)

	outcome := Outcome{Metric: g.opts.Metric, NewValue: newMetric}
	prior, state, err := g.PriorMetric(ctx)
	outcome.PriorState = state
	outcome.PriorValue = prior
	if err != nil {
		return outcome, err
	}

	if state == PriorFound && !(newMetric > prior) {
		outcome.Decision = Skipped
		logger.Info("publish skipped",
			logging.Args(append(logging.DecisionAttrs("publish_gate", string(Skipped), "no improvement over published metric"),
				logging.String("metric", g.opts.Metric),
				logging.Float64("new_value", newMetric),
				logging.Float64("prior_value", prior),
			)...)...)
		return outcome, nil
	}

	if err := g.upload(ctx, artifact); err != nil {
		return outcome, err
	}
	outcome.Decision = Published

	reason := "improved on published metric"
	if state != PriorFound {
		reason = "no prior metric"
	}
	attrs := append(logging.DecisionAttrs("publish_gate", string(Published), reason),
		logging.String("metric", g.opts.Metric),
		logging.Float64("new_value", newMetric),
		logging.String("prior_state", string(state)),
	)
	if state == PriorFound {
		attrs = append(attrs, logging.Float64("prior_value", prior))
	}
	logger.Info("artifact published", logging.Args(attrs...)...)
	return outcome, nil
}

// PriorMetric fetches the published metadata and extracts the comparison
// metric. The error is non-nil only in strict mode.
func (g *Gate) PriorMetric(ctx context.Context) (float64, PriorState, error) {
	logger := logging.WithContext(ctx, g.logger)

	data, err := g.registry.Fetch(ctx, g.opts.MetaKey)
	if errors.Is(err, registry.ErrNotFound) {
		logger.Info("no published metadata", logging.String("key", g.opts.MetaKey))
		return 0, PriorAbsent, nil
	}
	if err == nil {
		var meta training.Metadata
		meta, err = training.ParseMetadata(data)
		if err == nil {
			value, ok := meta.Metrics.Value(g.opts.Metric)
			if ok {
				return value, PriorFound, nil
			}
			err = fmt.Errorf("metric %q not recognised", g.opts.Metric)
		}
	}

	if g.opts.StrictPrior {
		return 0, PriorUnavailable, services.Wrap(services.ErrRegistry, "publish", "fetch prior metric", g.opts.MetaKey, err)
	}
	logging.WarnWithContext(logger, "prior metric unavailable, treating as first publish", "prior_metric_unavailable",
		logging.String("key", g.opts.MetaKey),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check registry reachability or set publish.strict_prior"),
		logging.String(logging.FieldImpact, "a registry outage can overwrite a better published model"),
	)
	return 0, PriorUnavailable, nil
}

func (g *Gate) upload(ctx context.Context, artifact training.Artifact) error {
	modelBytes, err := artifact.ModelBytes()
	if err != nil {
		return services.Wrap(services.ErrRegistry, "publish", "read artifact", artifact.ModelPath, err)
	}
	metaBytes, err := artifact.MetaBytes()
	if err != nil {
		return services.Wrap(services.ErrRegistry, "publish", "read artifact", artifact.MetaPath, err)
	}
	// Metadata goes last so the published metric never describes a model
	// that failed to upload.
	if err := g.registry.Put(ctx, g.opts.ModelKey, modelBytes); err != nil {
		return services.Wrap(services.ErrRegistry, "publish", "upload", g.opts.ModelKey, err)
	}
	if err := g.registry.Put(ctx, g.opts.MetaKey, metaBytes); err != nil {
		return services.Wrap(services.ErrRegistry, "publish", "upload", g.opts.MetaKey, err)
	}
	return nil
}
